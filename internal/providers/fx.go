package providers

import (
	"github.com/quizhive/quizhive/internal/providers/email"
	"github.com/quizhive/quizhive/internal/providers/pdf"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	email.Module,
	pdf.Module,
)
