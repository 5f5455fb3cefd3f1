package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// Item is a rentable object identified by a short numeric code. Items are
// soft-deleted: Active flips to false but the row stays for historical
// order references.
type Item struct {
	bun.BaseModel `bun:"table:items"`

	ID        int64     `bun:"itemid,pk,autoincrement"`
	Code      string    `bun:"itemcode,notnull"`
	Name      string    `bun:"itemname,notnull"`
	PhotoURL  string    `bun:"photourl"`
	Active    bool      `bun:"isactive,notnull,default:true"`
	CreatedAt time.Time `bun:"createddate,nullzero,notnull,default:CURRENT_TIMESTAMP"`
}
