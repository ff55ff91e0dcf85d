package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"nfe-backend/internal/database"
	"nfe-backend/internal/repository"
	"nfe-backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type noopNotifier struct{}

func (noopNotifier) InvoiceUpdated(string) {}
func (noopNotifier) InvoiceDeleted(string) {}

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	svc := service.NewNfeService(
		repository.NewNfeRepository(db),
		repository.NewSnapshotRepository(db),
		repository.NewTransactionManager(db),
		noopNotifier{},
		zap.NewNop(),
	)

	router := gin.New()
	NewNfeHandler(svc).RegisterRoutes(router.Group(""))
	return router
}

func doRequest(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

const savePayload = `{
	"id": "nfe-h-1",
	"number": "777",
	"supplier": "Gama Confeccoes",
	"items": [
		{"code": "X1", "description": "BERMUDA", "quantity": "2", "unit_price": "100", "total_price": "200", "discount": "20"}
	]
}`

func TestSaveAndGetNfe(t *testing.T) {
	router := setupRouter(t)

	w := doRequest(router, http.MethodPost, "/api/nfes", savePayload)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doRequest(router, http.MethodGet, "/api/nfes/nfe-h-1", "")
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Status string              `json:"status"`
		Data   service.NfeResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "success", envelope.Status)
	assert.Equal(t, "777", envelope.Data.Number)
	require.Len(t, envelope.Data.Items, 1)
	assert.Equal(t, "262.08", envelope.Data.Items[0].XapuriPrice)
}

func TestGetNfe_NotFound(t *testing.T) {
	router := setupRouter(t)

	w := doRequest(router, http.MethodGet, "/api/nfes/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSaveNfe_ValidationError(t *testing.T) {
	router := setupRouter(t)

	w := doRequest(router, http.MethodPost, "/api/nfes", `{"id": "x"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateConfig_InvalidRounding(t *testing.T) {
	router := setupRouter(t)
	doRequest(router, http.MethodPost, "/api/nfes", savePayload)

	w := doRequest(router, http.MethodPut, "/api/nfes/nfe-h-1", `{
		"entry_tax_rate": "12", "xapuri_markup": "160", "epita_markup": "130",
		"rounding": "75", "freight_total": "0"
	}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateConfig_LockedConflict(t *testing.T) {
	router := setupRouter(t)
	doRequest(router, http.MethodPost, "/api/nfes", savePayload)

	w := doRequest(router, http.MethodPut, "/api/nfes/nfe-h-1/lock", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, http.MethodPut, "/api/nfes/nfe-h-1", `{
		"entry_tax_rate": "12", "xapuri_markup": "200", "epita_markup": "150",
		"rounding": "90", "freight_total": "0"
	}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doRequest(router, http.MethodPut, "/api/nfes/nfe-h-1/unlock", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, http.MethodPut, "/api/nfes/nfe-h-1", `{
		"entry_tax_rate": "12", "xapuri_markup": "200", "epita_markup": "150",
		"rounding": "90", "freight_total": "0"
	}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDeleteNfe_ThenNotFound(t *testing.T) {
	router := setupRouter(t)
	doRequest(router, http.MethodPost, "/api/nfes", savePayload)

	w := doRequest(router, http.MethodDelete, "/api/nfes/nfe-h-1", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, http.MethodDelete, "/api/nfes/nfe-h-1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListNfes_Envelope(t *testing.T) {
	router := setupRouter(t)
	doRequest(router, http.MethodPost, "/api/nfes", savePayload)

	w := doRequest(router, http.MethodGet, "/api/nfes?supplier=Gama", "")
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data struct {
			Items []service.NfeResponse `json:"items"`
			Total int64                 `json:"total"`
			Page  int                   `json:"page"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.EqualValues(t, 1, envelope.Data.Total)
	assert.Equal(t, 1, envelope.Data.Page)
	require.Len(t, envelope.Data.Items, 1)
}

func TestImportXML_Preview(t *testing.T) {
	router := setupRouter(t)

	xmlDoc := `<?xml version="1.0"?>
<NFe xmlns="http://www.portalfiscal.inf.br/nfe">
  <infNFe Id="NFe222">
    <ide><nNF>9</nNF></ide>
    <emit><xNome>Delta Malhas</xNome></emit>
    <det nItem="1">
      <prod><cProd>D1</cProd><xProd>REGATA</xProd><qCom>1</qCom><vUnCom>10.00</vUnCom><vProd>10.00</vProd></prod>
    </det>
    <total><ICMSTot><vProd>10.00</vProd><vNF>10.00</vNF></ICMSTot></total>
  </infNFe>
</NFe>`

	req := httptest.NewRequest(http.MethodPost, "/api/import/xml", strings.NewReader(xmlDoc))
	req.Header.Set("Content-Type", "application/xml")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var envelope struct {
		Data service.NfeResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "222", envelope.Data.ID)

	// Preview only; nothing was stored.
	w = doRequest(router, http.MethodGet, "/api/nfes/222", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestImportXML_EmptyBody(t *testing.T) {
	router := setupRouter(t)

	w := doRequest(router, http.MethodPost, "/api/import/xml", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
