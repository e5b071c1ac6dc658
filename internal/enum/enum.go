package enum

// ── State machines (CHECK constrained in DB) ──

const (
	OrderStatusNew       = "NEW"
	OrderStatusPreparing = "PREPARING"
	OrderStatusReady     = "READY"
	OrderStatusCompleted = "COMPLETED"
	OrderStatusCancelled = "CANCELLED"
)

// ── Daily item kinds ──

const (
	DailyKindOffer        = "offer"
	DailyKindMenu         = "menu"
	DailyKindCompleteMenu = "complete_menu"
)

// ── Configurable labels (no DB constraint beyond CHECK) ──

const (
	PaymentMethodCash = "cash"
	PaymentMethodCard = "card"
)

const (
	CouponTypePercentage = "percentage"
	CouponTypeFixed      = "fixed"
)

const (
	OptionKindModifier = "modifier"
	OptionKindSide     = "side"
)

// ── Loyalty tiers, derived from cumulative order count ──

const (
	LoyaltyTierBronze = "bronze"
	LoyaltyTierSilver = "silver"
	LoyaltyTierGold   = "gold"
)
