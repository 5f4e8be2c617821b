// Package repo is the only point of contact with persistence. Every lookup
// re-reads current state; callers never hold a mutable account across calls.
package repo

import (
	"time"

	"gorm.io/gorm"
)

// tokenEpoch is the sentinel expiry written to invalidated refresh tokens.
// Rows are kept, not deleted, so consumed tokens remain visible to audits
// and replays are distinguishable from unknown tokens upstream.
var tokenEpoch = time.Unix(0, 0).UTC()

type GormRepo struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *GormRepo {
	return &GormRepo{DB: db}
}
