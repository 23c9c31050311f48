package vo

import (
	"time"

	"github.com/Xushengqwer/starter_hub/models/enums"
	"github.com/Xushengqwer/starter_hub/querybuilder"
)

type TenantVO struct {
	ID        string             `json:"id"`
	Slug      string             `json:"slug"`
	Name      string             `json:"name"`
	Status    enums.TenantStatus `json:"status"`
	CreatedAt time.Time          `json:"created_at"`
}

type TenantPageVO struct {
	Items    []TenantVO            `json:"items"`
	Metadata querybuilder.Metadata `json:"metadata"`
}
