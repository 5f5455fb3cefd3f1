package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// Order reserves an item for a closed date range. FromDate and ToDate are
// day-granular; a range ending on the day another begins still conflicts.
// Remaining always equals Rent - Advance, recomputed on every full update.
type Order struct {
	bun.BaseModel `bun:"table:orders"`

	ID               int64     `bun:"orderid,pk,autoincrement"`
	ItemID           int64     `bun:"itemid,notnull"`
	Item             *Item     `bun:"rel:belongs-to,join:itemid=itemid"`
	ClientName       string    `bun:"clientname,notnull"`
	Village          string    `bun:"village"`
	FromDate         time.Time `bun:"fromdate,notnull"`
	ToDate           time.Time `bun:"todate,notnull"`
	Rent             float64   `bun:"rent"`
	Advance          float64   `bun:"advance"`
	Remaining        float64   `bun:"remaining"`
	AdvanceTakenBy   *int64    `bun:"advance_taken_by"`
	RemainingTakenBy *int64    `bun:"remaining_taken_by"`
	RemainingAmount  *float64  `bun:"remaining_amount"`
	Remark           string    `bun:"remark"`
	MobileNumber     string    `bun:"mobilenumber,notnull"`
	CreatedAt        time.Time `bun:"createddate,nullzero,notnull,default:CURRENT_TIMESTAMP"`
}
