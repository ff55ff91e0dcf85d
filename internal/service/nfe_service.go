package service

import (
	"context"
	"errors"
	"fmt"

	"nfe-backend/internal/model"
	"nfe-backend/internal/nfe"
	"nfe-backend/internal/pricing"
	"nfe-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrNfeLocked is returned when a mutation targets a locked invoice.
// The lock is a cooperative guard: every writer checks it inside the
// update transaction before touching configuration.
var ErrNfeLocked = errors.New("nfe is locked")

// --- DTOs ---

type ItemRequest struct {
	Code        string `json:"code" binding:"required"`
	Description string `json:"description" binding:"required"`
	NCM         string `json:"ncm"`
	CFOP        string `json:"cfop"`
	Unit        string `json:"unit"`
	EAN         string `json:"ean"`
	Reference   string `json:"reference"`
	Brand       string `json:"brand"`
	Color       string `json:"color"`
	Size        string `json:"size"`
	Quantity    string `json:"quantity" binding:"required"`
	UnitPrice   string `json:"unit_price" binding:"required"`
	TotalPrice  string `json:"total_price" binding:"required"`
	Discount    string `json:"discount"`
	ExtraCost   string `json:"extra_cost"`
}

type SaveNfeRequest struct {
	ID            string        `json:"id" binding:"required"`
	Number        string        `json:"number" binding:"required"`
	AccessKey     string        `json:"access_key"`
	IssuedAt      string        `json:"issued_at"`
	Supplier      string        `json:"supplier" binding:"required"`
	SupplierTaxID string        `json:"supplier_tax_id"`
	TotalAmount   string        `json:"total_amount"`
	EntryTaxRate  string        `json:"entry_tax_rate"`
	XapuriMarkup  string        `json:"xapuri_markup"`
	EpitaMarkup   string        `json:"epita_markup"`
	Rounding      string        `json:"rounding" binding:"omitempty,oneof=none 90 50"`
	FreightTotal  string        `json:"freight_total"`
	Items         []ItemRequest `json:"items" binding:"required,min=1,dive"`
}

// UpdateConfigRequest replaces the invoice's pricing configuration as one
// unit. Partial updates are not supported on purpose: a half-applied
// configuration would leave derived prices inconsistent with stored inputs.
type UpdateConfigRequest struct {
	Supplier     string `json:"supplier"`
	EntryTaxRate string `json:"entry_tax_rate" binding:"required"`
	XapuriMarkup string `json:"xapuri_markup" binding:"required"`
	EpitaMarkup  string `json:"epita_markup" binding:"required"`
	Rounding     string `json:"rounding" binding:"required,oneof=none 90 50"`
	FreightTotal string `json:"freight_total" binding:"required"`
}

type NfeFilter struct {
	Supplier      string
	Number        string
	FavoritesOnly bool
	Page          int
	Limit         int
}

type ItemResponse struct {
	ID           string `json:"id"`
	Code         string `json:"code"`
	Description  string `json:"description"`
	NCM          string `json:"ncm"`
	CFOP         string `json:"cfop"`
	Unit         string `json:"unit"`
	EAN          string `json:"ean"`
	Reference    string `json:"reference"`
	Brand        string `json:"brand"`
	Color        string `json:"color"`
	Size         string `json:"size"`
	Quantity     string `json:"quantity"`
	UnitPrice    string `json:"unit_price"`
	TotalPrice   string `json:"total_price"`
	Discount     string `json:"discount"`
	ExtraCost    string `json:"extra_cost"`
	FreightShare string `json:"freight_share"`
	NetUnitCost  string `json:"net_unit_cost"`
	XapuriPrice  string `json:"xapuri_price"`
	EpitaPrice   string `json:"epita_price"`
}

type NfeResponse struct {
	ID            string         `json:"id"`
	Number        string         `json:"number"`
	AccessKey     string         `json:"access_key"`
	IssuedAt      string         `json:"issued_at"`
	Supplier      string         `json:"supplier"`
	SupplierTaxID string         `json:"supplier_tax_id"`
	TotalAmount   string         `json:"total_amount"`
	ItemCount     int            `json:"item_count"`
	EntryTaxRate  string         `json:"entry_tax_rate"`
	XapuriMarkup  string         `json:"xapuri_markup"`
	EpitaMarkup   string         `json:"epita_markup"`
	Rounding      string         `json:"rounding"`
	FreightTotal  string         `json:"freight_total"`
	Locked        bool           `json:"locked"`
	Favorite      bool           `json:"favorite"`
	Items         []ItemResponse `json:"items"`

	// Filled on single-invoice reads only.
	Summary *SummaryResponse `json:"summary,omitempty"`
}

type SummaryResponse struct {
	TotalGross             string `json:"total_gross"`
	TotalDiscount          string `json:"total_discount"`
	TotalNet               string `json:"total_net"`
	TotalNetCost           string `json:"total_net_cost"`
	TotalQuantity          string `json:"total_quantity"`
	AverageDiscountPercent string `json:"average_discount_percent"`
	SuggestedXapuriMarkup  string `json:"suggested_xapuri_markup"`
	SuggestedEpitaMarkup   string `json:"suggested_epita_markup"`
}

// Notifier is the post-commit notification sink; the debounced websocket
// notifier satisfies it.
type Notifier interface {
	InvoiceUpdated(nfeID string)
	InvoiceDeleted(nfeID string)
}

// --- Interface ---

type NfeService interface {
	ImportXML(ctx context.Context, xmlData []byte) (NfeResponse, error)
	SaveNfe(ctx context.Context, req SaveNfeRequest) (NfeResponse, error)
	GetNfe(ctx context.Context, id string) (NfeResponse, error)
	ListNfes(ctx context.Context, filter NfeFilter) ([]NfeResponse, int64, error)
	UpdateConfig(ctx context.Context, id string, req UpdateConfigRequest) (NfeResponse, error)
	SetExtraCost(ctx context.Context, id string, itemID string, extraCost string) (NfeResponse, error)
	SetLocked(ctx context.Context, id string, locked bool) (NfeResponse, error)
	SetFavorite(ctx context.Context, id string, favorite bool) (NfeResponse, error)
	DeleteNfe(ctx context.Context, id string) error
	GetSummary(ctx context.Context, id string) (SummaryResponse, error)
	PriceHistory(ctx context.Context, id string, limit int) ([]model.PriceSnapshot, error)
}

type nfeService struct {
	nfeRepo      repository.NfeRepository
	snapshotRepo repository.SnapshotRepository
	txManager    repository.TransactionManager
	notifier     Notifier
	logger       *zap.Logger
}

func NewNfeService(
	nfeRepo repository.NfeRepository,
	snapshotRepo repository.SnapshotRepository,
	txManager repository.TransactionManager,
	notifier Notifier,
	logger *zap.Logger,
) NfeService {
	return &nfeService{
		nfeRepo:      nfeRepo,
		snapshotRepo: snapshotRepo,
		txManager:    txManager,
		notifier:     notifier,
		logger:       logger,
	}
}

// --- Implementation ---

// ImportXML parses an NF-e document into a priced preview. Nothing is
// persisted; the client reviews the preview and saves it explicitly.
func (s *nfeService) ImportXML(_ context.Context, xmlData []byte) (NfeResponse, error) {
	invoice, err := nfe.Parse(xmlData)
	if err != nil {
		return NfeResponse{}, fmt.Errorf("failed to parse NF-e: %w", err)
	}

	pricing.Apply(invoice.Items, pricing.ConfigOf(invoice))
	return toNfeResponse(*invoice), nil
}

func (s *nfeService) SaveNfe(ctx context.Context, req SaveNfeRequest) (NfeResponse, error) {
	invoice, err := invoiceFromRequest(req)
	if err != nil {
		return NfeResponse{}, err
	}

	pricing.Apply(invoice.Items, pricing.ConfigOf(invoice))

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		existing, findErr := s.nfeRepo.FindByID(txCtx, invoice.ID)
		if findErr == nil && existing.Locked {
			return ErrNfeLocked
		}

		items := invoice.Items
		if upsertErr := s.nfeRepo.Upsert(txCtx, invoice); upsertErr != nil {
			return fmt.Errorf("failed to save nfe: %w", upsertErr)
		}
		if replaceErr := s.nfeRepo.ReplaceItems(txCtx, invoice.ID, items); replaceErr != nil {
			return fmt.Errorf("failed to save nfe items: %w", replaceErr)
		}
		invoice.Items = items
		return nil
	})
	if err != nil {
		return NfeResponse{}, err
	}

	s.logger.Info("nfe saved",
		zap.String("nfe_id", invoice.ID),
		zap.Int("items", len(invoice.Items)))
	s.notifier.InvoiceUpdated(invoice.ID)

	return toNfeResponse(*invoice), nil
}

func (s *nfeService) GetNfe(ctx context.Context, id string) (NfeResponse, error) {
	invoice, err := s.nfeRepo.FindByIDWithItems(ctx, id)
	if err != nil {
		return NfeResponse{}, fmt.Errorf("nfe not found: %w", err)
	}

	resp := toNfeResponse(*invoice)
	summary := summarize(invoice)
	resp.Summary = &summary
	return resp, nil
}

func (s *nfeService) ListNfes(ctx context.Context, filter NfeFilter) ([]NfeResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	nfes, total, err := s.nfeRepo.List(ctx, repository.NfeListFilter{
		Supplier:      filter.Supplier,
		Number:        filter.Number,
		FavoritesOnly: filter.FavoritesOnly,
		Page:          filter.Page,
		Limit:         filter.Limit,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch nfes: %w", err)
	}

	result := make([]NfeResponse, 0, len(nfes))
	for _, n := range nfes {
		result = append(result, toNfeResponse(n))
	}
	return result, total, nil
}

// UpdateConfig replaces the pricing configuration of an unlocked invoice,
// recomputes every item's derived prices under the new configuration and
// appends one price snapshot per item, all in a single transaction.
func (s *nfeService) UpdateConfig(ctx context.Context, id string, req UpdateConfigRequest) (NfeResponse, error) {
	cfg, err := configFromRequest(req)
	if err != nil {
		return NfeResponse{}, err
	}

	var invoice *model.Nfe
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		invoice, findErr = s.nfeRepo.FindByIDWithItems(txCtx, id)
		if findErr != nil {
			return fmt.Errorf("nfe not found: %w", findErr)
		}
		if invoice.Locked {
			return ErrNfeLocked
		}

		if req.Supplier != "" {
			invoice.Supplier = req.Supplier
		}
		invoice.EntryTaxRate = cfg.EntryTaxRate
		invoice.XapuriMarkup = cfg.XapuriMarkup
		invoice.EpitaMarkup = cfg.EpitaMarkup
		invoice.Rounding = cfg.Rounding
		invoice.FreightTotal = cfg.FreightTotal

		return s.recomputeAndPersist(txCtx, invoice)
	})
	if err != nil {
		return NfeResponse{}, err
	}

	s.logger.Info("nfe configuration updated", zap.String("nfe_id", id))
	s.notifier.InvoiceUpdated(id)

	return toNfeResponse(*invoice), nil
}

// SetExtraCost sets the manual per-unit cost adjustment of one item and
// recomputes the whole invoice under the unchanged configuration.
func (s *nfeService) SetExtraCost(ctx context.Context, id string, itemID string, extraCost string) (NfeResponse, error) {
	extra, err := decimal.NewFromString(extraCost)
	if err != nil {
		return NfeResponse{}, fmt.Errorf("invalid extra_cost: %w", err)
	}
	if extra.IsNegative() {
		return NfeResponse{}, fmt.Errorf("extra_cost must not be negative")
	}
	parsedItemID, err := uuid.Parse(itemID)
	if err != nil {
		return NfeResponse{}, fmt.Errorf("invalid item id: %w", err)
	}

	var invoice *model.Nfe
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		invoice, findErr = s.nfeRepo.FindByIDWithItems(txCtx, id)
		if findErr != nil {
			return fmt.Errorf("nfe not found: %w", findErr)
		}
		if invoice.Locked {
			return ErrNfeLocked
		}

		found := false
		for i := range invoice.Items {
			if invoice.Items[i].ID == parsedItemID {
				invoice.Items[i].ExtraCost = extra
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("item not found: %s", itemID)
		}

		return s.recomputeAndPersist(txCtx, invoice)
	})
	if err != nil {
		return NfeResponse{}, err
	}

	s.notifier.InvoiceUpdated(id)
	return toNfeResponse(*invoice), nil
}

func (s *nfeService) SetLocked(ctx context.Context, id string, locked bool) (NfeResponse, error) {
	invoice, err := s.nfeRepo.FindByIDWithItems(ctx, id)
	if err != nil {
		return NfeResponse{}, fmt.Errorf("nfe not found: %w", err)
	}

	invoice.Locked = locked
	if err := s.nfeRepo.Update(ctx, invoice); err != nil {
		return NfeResponse{}, fmt.Errorf("failed to update nfe: %w", err)
	}

	s.logger.Info("nfe lock changed", zap.String("nfe_id", id), zap.Bool("locked", locked))
	s.notifier.InvoiceUpdated(id)
	return toNfeResponse(*invoice), nil
}

func (s *nfeService) SetFavorite(ctx context.Context, id string, favorite bool) (NfeResponse, error) {
	invoice, err := s.nfeRepo.FindByIDWithItems(ctx, id)
	if err != nil {
		return NfeResponse{}, fmt.Errorf("nfe not found: %w", err)
	}

	invoice.Favorite = favorite
	if err := s.nfeRepo.Update(ctx, invoice); err != nil {
		return NfeResponse{}, fmt.Errorf("failed to update nfe: %w", err)
	}

	return toNfeResponse(*invoice), nil
}

func (s *nfeService) DeleteNfe(ctx context.Context, id string) error {
	if err := s.nfeRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.notifier.InvoiceDeleted(id)
	return nil
}

func (s *nfeService) GetSummary(ctx context.Context, id string) (SummaryResponse, error) {
	invoice, err := s.nfeRepo.FindByIDWithItems(ctx, id)
	if err != nil {
		return SummaryResponse{}, fmt.Errorf("nfe not found: %w", err)
	}

	return summarize(invoice), nil
}

func summarize(invoice *model.Nfe) SummaryResponse {
	totals := pricing.Summarize(invoice.Items, invoice.EntryTaxRate)
	suggestedXapuri, suggestedEpita := pricing.SuggestedMarkups(invoice.Items)

	return SummaryResponse{
		TotalGross:             totals.TotalGross.StringFixed(2),
		TotalDiscount:          totals.TotalDiscount.StringFixed(2),
		TotalNet:               totals.TotalNet.StringFixed(2),
		TotalNetCost:           totals.TotalNetCost.StringFixed(2),
		TotalQuantity:          totals.TotalQuantity.String(),
		AverageDiscountPercent: totals.AverageDiscountPercent.StringFixed(2),
		SuggestedXapuriMarkup:  suggestedXapuri.StringFixed(0),
		SuggestedEpitaMarkup:   suggestedEpita.StringFixed(0),
	}
}

func (s *nfeService) PriceHistory(ctx context.Context, id string, limit int) ([]model.PriceSnapshot, error) {
	snapshots, err := s.snapshotRepo.ListByNfe(ctx, id, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch price history: %w", err)
	}
	return snapshots, nil
}

// recomputeAndPersist reprices all items of the invoice, stores the invoice
// and item rows, and appends one price snapshot per item. Callers hold the
// transaction and have already checked the lock flag.
func (s *nfeService) recomputeAndPersist(txCtx context.Context, invoice *model.Nfe) error {
	pricing.Apply(invoice.Items, pricing.ConfigOf(invoice))

	if err := s.nfeRepo.Update(txCtx, invoice); err != nil {
		return fmt.Errorf("failed to update nfe: %w", err)
	}
	if err := s.nfeRepo.UpdateItems(txCtx, invoice.Items); err != nil {
		return fmt.Errorf("failed to update nfe items: %w", err)
	}

	snapshots := make([]model.PriceSnapshot, 0, len(invoice.Items))
	for _, item := range invoice.Items {
		snapshots = append(snapshots, model.PriceSnapshot{
			NfeID:        invoice.ID,
			ItemID:       item.ID,
			EntryTaxRate: invoice.EntryTaxRate,
			XapuriMarkup: invoice.XapuriMarkup,
			EpitaMarkup:  invoice.EpitaMarkup,
			Rounding:     invoice.Rounding,
			FreightTotal: invoice.FreightTotal,
			NetUnitCost:  item.NetUnitCost,
			FreightShare: item.FreightShare,
			XapuriPrice:  item.XapuriPrice,
			EpitaPrice:   item.EpitaPrice,
		})
	}
	if err := s.snapshotRepo.CreateBatch(txCtx, snapshots); err != nil {
		return fmt.Errorf("failed to log price snapshots: %w", err)
	}
	return nil
}

// --- Mapping ---

func invoiceFromRequest(req SaveNfeRequest) (*model.Nfe, error) {
	invoice := &model.Nfe{
		ID:            req.ID,
		Number:        req.Number,
		AccessKey:     req.AccessKey,
		IssuedAt:      req.IssuedAt,
		Supplier:      req.Supplier,
		SupplierTaxID: req.SupplierTaxID,
		Rounding:      req.Rounding,
	}

	var err error
	if invoice.TotalAmount, err = optionalDecimal(req.TotalAmount); err != nil {
		return nil, fmt.Errorf("invalid total_amount: %w", err)
	}
	if invoice.EntryTaxRate, err = optionalDecimal(req.EntryTaxRate); err != nil {
		return nil, fmt.Errorf("invalid entry_tax_rate: %w", err)
	}
	if invoice.XapuriMarkup, err = optionalDecimal(req.XapuriMarkup); err != nil {
		return nil, fmt.Errorf("invalid xapuri_markup: %w", err)
	}
	if invoice.EpitaMarkup, err = optionalDecimal(req.EpitaMarkup); err != nil {
		return nil, fmt.Errorf("invalid epita_markup: %w", err)
	}
	if invoice.FreightTotal, err = optionalDecimal(req.FreightTotal); err != nil {
		return nil, fmt.Errorf("invalid freight_total: %w", err)
	}
	invoice.ApplyConfigDefaults()

	items := make([]model.NfeItem, 0, len(req.Items))
	for i, itemReq := range req.Items {
		item, itemErr := itemFromRequest(itemReq)
		if itemErr != nil {
			return nil, fmt.Errorf("invalid item %d: %w", i+1, itemErr)
		}
		item.Ordinal = i + 1
		items = append(items, item)
	}
	invoice.Items = items
	invoice.ItemCount = len(items)

	if invoice.TotalAmount.IsZero() {
		for _, item := range items {
			invoice.TotalAmount = invoice.TotalAmount.Add(item.TotalPrice)
		}
	}
	return invoice, nil
}

func itemFromRequest(req ItemRequest) (model.NfeItem, error) {
	item := model.NfeItem{
		Code:        req.Code,
		Description: req.Description,
		NCM:         req.NCM,
		CFOP:        req.CFOP,
		Unit:        req.Unit,
		EAN:         req.EAN,
		Reference:   req.Reference,
		Brand:       req.Brand,
		Color:       req.Color,
		Size:        req.Size,
	}

	var err error
	if item.Quantity, err = decimal.NewFromString(req.Quantity); err != nil {
		return model.NfeItem{}, fmt.Errorf("invalid quantity: %w", err)
	}
	if item.UnitPrice, err = decimal.NewFromString(req.UnitPrice); err != nil {
		return model.NfeItem{}, fmt.Errorf("invalid unit_price: %w", err)
	}
	if item.TotalPrice, err = decimal.NewFromString(req.TotalPrice); err != nil {
		return model.NfeItem{}, fmt.Errorf("invalid total_price: %w", err)
	}
	if item.Discount, err = optionalDecimal(req.Discount); err != nil {
		return model.NfeItem{}, fmt.Errorf("invalid discount: %w", err)
	}
	if item.ExtraCost, err = optionalDecimal(req.ExtraCost); err != nil {
		return model.NfeItem{}, fmt.Errorf("invalid extra_cost: %w", err)
	}
	return item, nil
}

func configFromRequest(req UpdateConfigRequest) (pricing.Config, error) {
	var cfg pricing.Config
	var err error

	if cfg.EntryTaxRate, err = decimal.NewFromString(req.EntryTaxRate); err != nil {
		return cfg, fmt.Errorf("invalid entry_tax_rate: %w", err)
	}
	if cfg.XapuriMarkup, err = decimal.NewFromString(req.XapuriMarkup); err != nil {
		return cfg, fmt.Errorf("invalid xapuri_markup: %w", err)
	}
	if cfg.EpitaMarkup, err = decimal.NewFromString(req.EpitaMarkup); err != nil {
		return cfg, fmt.Errorf("invalid epita_markup: %w", err)
	}
	if cfg.FreightTotal, err = decimal.NewFromString(req.FreightTotal); err != nil {
		return cfg, fmt.Errorf("invalid freight_total: %w", err)
	}
	cfg.Rounding = req.Rounding
	return cfg, nil
}

func optionalDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func toNfeResponse(n model.Nfe) NfeResponse {
	items := make([]ItemResponse, 0, len(n.Items))
	for _, item := range n.Items {
		items = append(items, ItemResponse{
			ID:           item.ID.String(),
			Code:         item.Code,
			Description:  item.Description,
			NCM:          item.NCM,
			CFOP:         item.CFOP,
			Unit:         item.Unit,
			EAN:          item.EAN,
			Reference:    item.Reference,
			Brand:        item.Brand,
			Color:        item.Color,
			Size:         item.Size,
			Quantity:     item.Quantity.String(),
			UnitPrice:    item.UnitPrice.StringFixed(4),
			TotalPrice:   item.TotalPrice.StringFixed(2),
			Discount:     item.Discount.StringFixed(2),
			ExtraCost:    item.ExtraCost.StringFixed(2),
			FreightShare: item.FreightShare.StringFixed(4),
			NetUnitCost:  item.NetUnitCost.StringFixed(4),
			XapuriPrice:  item.XapuriPrice.StringFixed(2),
			EpitaPrice:   item.EpitaPrice.StringFixed(2),
		})
	}

	return NfeResponse{
		ID:            n.ID,
		Number:        n.Number,
		AccessKey:     n.AccessKey,
		IssuedAt:      n.IssuedAt,
		Supplier:      n.Supplier,
		SupplierTaxID: n.SupplierTaxID,
		TotalAmount:   n.TotalAmount.StringFixed(2),
		ItemCount:     n.ItemCount,
		EntryTaxRate:  n.EntryTaxRate.String(),
		XapuriMarkup:  n.XapuriMarkup.String(),
		EpitaMarkup:   n.EpitaMarkup.String(),
		Rounding:      n.Rounding,
		FreightTotal:  n.FreightTotal.StringFixed(2),
		Locked:        n.Locked,
		Favorite:      n.Favorite,
		Items:         items,
	}
}
