package services

import (
	"context"

	"github.com/shambhoomaddheshiya/yuva-finance/internal/ledger"
	"github.com/shambhoomaddheshiya/yuva-finance/internal/model"
	"github.com/shambhoomaddheshiya/yuva-finance/pkg/logger"
	"github.com/shambhoomaddheshiya/yuva-finance/pkg/prom"
)

// reportWarnings logs and counts integrity warnings. They never stop a computation.
func reportWarnings(ctx context.Context, warnings []ledger.Warning) {
	for _, w := range warnings {
		logger.Warn("ledger integrity warning",
			"kind", w.Kind,
			"group", model.GroupFromContext(ctx),
			"transaction_id", w.TransactionID,
			"member_id", w.MemberID,
			"loan_id", w.LoanID,
			"message", w.Message,
		)
		prom.IncIntegrityWarning(string(w.Kind))
	}
}
