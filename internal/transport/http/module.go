package http

import (
	"go.uber.org/fx"

	itemtransport "github.com/Additional-Code/rentalhub/internal/transport/http/item"
	ordertransport "github.com/Additional-Code/rentalhub/internal/transport/http/order"
)

// Module aggregates all HTTP transport handlers.
var Module = fx.Options(
	itemtransport.Module,
	ordertransport.Module,
)
