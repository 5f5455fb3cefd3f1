package app

import (
	"go.uber.org/fx"

	"github.com/Additional-Code/rentalhub/internal/cache"
	"github.com/Additional-Code/rentalhub/internal/config"
	"github.com/Additional-Code/rentalhub/internal/database"
	"github.com/Additional-Code/rentalhub/internal/logger"
	"github.com/Additional-Code/rentalhub/internal/messaging"
	"github.com/Additional-Code/rentalhub/internal/observability"
	repositoryitem "github.com/Additional-Code/rentalhub/internal/repository/item"
	repositoryorder "github.com/Additional-Code/rentalhub/internal/repository/order"
	grpcserver "github.com/Additional-Code/rentalhub/internal/server/grpc"
	httpserver "github.com/Additional-Code/rentalhub/internal/server/http"
	serviceavailability "github.com/Additional-Code/rentalhub/internal/service/availability"
	servicebooking "github.com/Additional-Code/rentalhub/internal/service/booking"
	serviceitem "github.com/Additional-Code/rentalhub/internal/service/item"
	transporthttp "github.com/Additional-Code/rentalhub/internal/transport/http"
	"github.com/Additional-Code/rentalhub/internal/worker"
	workerbooking "github.com/Additional-Code/rentalhub/internal/worker/booking"
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	config.Module,
	cache.Module,
	database.Module,
	logger.Module,
	messaging.Module,
	observability.Module,
	repositoryitem.Module,
	repositoryorder.Module,
	serviceavailability.Module,
	servicebooking.Module,
	serviceitem.Module,
)

// HTTP wires the HTTP transport on top of the core modules.
var HTTP = fx.Options(
	Core,
	httpserver.Module,
	transporthttp.Module,
)

// GRPC runs the gRPC surface (health checking only for now).
var GRPC = fx.Options(
	Core,
	grpcserver.Module,
)

// Worker exposes background worker processing.
var Worker = fx.Options(
	Core,
	worker.Module,
	workerbooking.Module,
)

// Module is the default application wiring (HTTP only).
var Module = HTTP
