package authorization

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	ObjectProduct     = "product"
	ObjectCart        = "cart"
	ObjectCheckout    = "checkout"
	ObjectTransaction = "transaction"
	ObjectUser        = "user"
	ObjectAuditLog    = "audit_log"
	ObjectSettings    = "settings"
)

const (
	ActionView   = "view"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionAdjust = "adjust"

	ActionCheckoutProcess = "process"
	ActionCheckoutVoid    = "void"
	ActionCheckoutRefund  = "refund"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
}

func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	enforcer.BuildRoleLinks()
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, role string, object string, action string) error {
	role = strings.TrimSpace(role)
	if role == "" {
		return ErrInvalidRole
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	subject := fmt.Sprintf("role:%s", strings.ToLower(role))
	allowed, err := s.enforcer.Enforce(subject, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.log.Warn("authorization denied",
			zap.String("role", role),
			zap.String("object", object),
			zap.String("action", action),
		)
		return ErrForbidden
	}
	return nil
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		// Cashiers run the register but cannot reverse money.
		{"role:cashier", ObjectProduct, ActionView},
		{"role:cashier", ObjectCart, "*"},
		{"role:cashier", ObjectCheckout, ActionCheckoutProcess},
		{"role:cashier", ObjectTransaction, ActionView},

		// Managers additionally approve reversals and manage the catalog.
		{"role:manager", ObjectProduct, ActionView},
		{"role:manager", ObjectProduct, ActionCreate},
		{"role:manager", ObjectProduct, ActionUpdate},
		{"role:manager", ObjectProduct, ActionAdjust},
		{"role:manager", ObjectCart, "*"},
		{"role:manager", ObjectCheckout, ActionCheckoutProcess},
		{"role:manager", ObjectCheckout, ActionCheckoutVoid},
		{"role:manager", ObjectCheckout, ActionCheckoutRefund},
		{"role:manager", ObjectTransaction, ActionView},
		{"role:manager", ObjectAuditLog, ActionView},

		// Administrators get everything including user management.
		{"role:administrator", ObjectProduct, "*"},
		{"role:administrator", ObjectCart, "*"},
		{"role:administrator", ObjectCheckout, "*"},
		{"role:administrator", ObjectTransaction, "*"},
		{"role:administrator", ObjectUser, "*"},
		{"role:administrator", ObjectAuditLog, "*"},
		{"role:administrator", ObjectSettings, "*"},
	}

	for _, policy := range policies {
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}
	return nil
}
