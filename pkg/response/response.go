// Package response defines the JSON envelope every API endpoint returns.
package response

// Response wraps a single result or an error.
type Response struct {
	Status     string      `json:"status"`      // "success" or "error"
	StatusCode int         `json:"status_code"` // HTTP status code
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// Listing is the Data payload of paginated collection endpoints.
type Listing struct {
	Items interface{} `json:"items"`
	Total int64       `json:"total"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
}

// Success wraps data in a success envelope.
func Success(statusCode int, data interface{}) Response {
	return Response{
		Status:     "success",
		StatusCode: statusCode,
		Data:       data,
	}
}

// Paged wraps a page of a collection together with the total row count.
func Paged(statusCode int, items interface{}, total int64, page, limit int) Response {
	return Success(statusCode, Listing{
		Items: items,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// Error wraps an error message in an error envelope.
func Error(statusCode int, err string) Response {
	return Response{
		Status:     "error",
		StatusCode: statusCode,
		Error:      err,
	}
}
