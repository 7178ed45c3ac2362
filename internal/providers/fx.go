// Package providers wires external collaborators: document layout and
// the payment platform.
package providers

import (
	"github.com/billfold/billfold/internal/providers/payment"
	"github.com/billfold/billfold/internal/providers/pdf"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	fx.Provide(pdf.New),
	fx.Provide(payment.NewHTTPProvider),
)
