package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tillpoint/internal/cart/domain"
	"github.com/smallbiznis/tillpoint/internal/pricing"
	productdomain "github.com/smallbiznis/tillpoint/internal/product/domain"
	"github.com/smallbiznis/tillpoint/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const commitLockTTL = 30 * time.Second

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Engine   *pricing.Engine
	Products productdomain.Repository
	Locker   *ratelimit.Locker
}

// entry is one session's cart plus its lock. The lock serializes every
// mutation for that session and is held across the whole of Commit.
type entry struct {
	mu         sync.Mutex
	cart       domain.Cart
	nextItemID int64
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	engine   *pricing.Engine
	products productdomain.Repository
	locker   *ratelimit.Locker

	mu      sync.Mutex
	entries map[string]*entry
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("cart.service"),
		engine:   p.Engine,
		products: p.Products,
		locker:   p.Locker,
		entries:  make(map[string]*entry),
	}
}

func (s *Service) entryFor(session string) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[session]
	if !ok {
		e = &entry{
			cart:       domain.Cart{SessionID: session, Generation: 1},
			nextItemID: 1,
		}
		s.entries[session] = e
	}
	return e
}

func (s *Service) view(cart domain.Cart) (domain.View, error) {
	totals, err := s.engine.Compute(cart.Lines(), cart.Discount)
	if err != nil {
		return domain.View{}, err
	}
	return domain.View{Cart: cart, Totals: totals}, nil
}

func (s *Service) Get(ctx context.Context, session string) (domain.View, error) {
	e := s.entryFor(session)
	e.mu.Lock()
	defer e.mu.Unlock()
	return s.view(e.cart)
}

func (s *Service) AddItem(ctx context.Context, session string, req domain.AddItemRequest) (domain.View, error) {
	if req.Quantity < 0 {
		return domain.View{}, domain.ErrInvalidQuantity
	}
	// Scanning a barcode without keying a quantity means one unit.
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	product, err := s.resolveProduct(ctx, req)
	if err != nil {
		return domain.View{}, err
	}
	if !product.IsActive {
		return domain.View{}, domain.ErrProductInactive
	}

	e := s.entryFor(session)
	e.mu.Lock()
	defer e.mu.Unlock()

	// Merge with an existing line for the same product, checking the combined
	// quantity against current stock. Stock is re-verified atomically at
	// checkout; this check just surfaces the problem early.
	var inCart int64
	idx := -1
	for i, item := range e.cart.Items {
		if item.ProductID == product.ID {
			inCart = item.Quantity
			idx = i
			break
		}
	}
	if inCart+req.Quantity > product.StockQuantity {
		return domain.View{}, domain.ErrInsufficientStock
	}

	if idx >= 0 {
		e.cart.Items[idx].Quantity += req.Quantity
	} else {
		e.cart.Items = append(e.cart.Items, domain.CartItem{
			ID:             e.nextItemID,
			ProductID:      product.ID,
			Barcode:        product.Barcode,
			Name:           product.Name,
			UnitPriceCents: product.PriceCents,
			Quantity:       req.Quantity,
			TaxRate:        product.TaxRate,
		})
		e.nextItemID++
	}

	e.cart.Generation++
	return s.view(e.cart)
}

func (s *Service) resolveProduct(ctx context.Context, req domain.AddItemRequest) (*productdomain.Product, error) {
	if barcode := strings.TrimSpace(req.Barcode); barcode != "" {
		product, err := s.products.FindByBarcode(ctx, s.db, barcode)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, domain.ErrProductNotFound
		}
		return product, nil
	}

	id, err := snowflake.ParseString(strings.TrimSpace(req.ProductID))
	if err != nil {
		return nil, domain.ErrProductNotFound
	}
	product, err := s.products.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrProductNotFound
	}
	return product, nil
}

func (s *Service) UpdateItem(ctx context.Context, session string, req domain.UpdateItemRequest) (domain.View, error) {
	if req.Quantity < 0 {
		return domain.View{}, domain.ErrInvalidQuantity
	}

	e := s.entryFor(session)
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := -1
	for i, item := range e.cart.Items {
		if item.ID == req.ItemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return domain.View{}, domain.ErrItemNotFound
	}

	if req.Quantity == 0 {
		e.cart.Items = append(e.cart.Items[:idx], e.cart.Items[idx+1:]...)
		e.cart.Generation++
		return s.view(e.cart)
	}

	product, err := s.products.FindByID(ctx, s.db, e.cart.Items[idx].ProductID)
	if err != nil {
		return domain.View{}, err
	}
	if product != nil && req.Quantity > product.StockQuantity {
		return domain.View{}, domain.ErrInsufficientStock
	}

	e.cart.Items[idx].Quantity = req.Quantity
	e.cart.Generation++
	return s.view(e.cart)
}

// RemoveItem drops the line if present. Removing a line that is already
// gone is a success; the register may retry a remove after a hiccup.
func (s *Service) RemoveItem(ctx context.Context, session string, itemID int64) (domain.View, error) {
	e := s.entryFor(session)
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, item := range e.cart.Items {
		if item.ID == itemID {
			e.cart.Items = append(e.cart.Items[:i], e.cart.Items[i+1:]...)
			e.cart.Generation++
			break
		}
	}
	return s.view(e.cart)
}

func (s *Service) SetDiscount(ctx context.Context, session string, discount pricing.Discount) (domain.View, error) {
	e := s.entryFor(session)
	e.mu.Lock()
	defer e.mu.Unlock()

	// Validate against the current contents before storing.
	if _, err := s.engine.Compute(e.cart.Lines(), discount); err != nil {
		return domain.View{}, err
	}

	e.cart.Discount = discount
	e.cart.Generation++
	return s.view(e.cart)
}

func (s *Service) Clear(ctx context.Context, session string) error {
	e := s.entryFor(session)
	e.mu.Lock()
	defer e.mu.Unlock()
	s.reset(e)
	return nil
}

func (s *Service) reset(e *entry) {
	gen := e.cart.Generation + 1
	e.cart = domain.Cart{SessionID: e.cart.SessionID, Generation: gen}
	e.nextItemID = 1
}

func (s *Service) Commit(ctx context.Context, session string, fn func(domain.Cart) error) error {
	e := s.entryFor(session)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cart.Empty() {
		return domain.ErrCartEmpty
	}

	release, err := s.locker.Acquire(ctx, "tillpoint:checkout:"+session, commitLockTTL)
	if err != nil {
		return err
	}
	defer release()

	snapshot := e.cart
	snapshot.Items = append([]domain.CartItem(nil), e.cart.Items...)

	if err := fn(snapshot); err != nil {
		return err
	}

	s.reset(e)
	return nil
}
