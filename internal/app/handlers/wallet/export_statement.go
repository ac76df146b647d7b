package wallet

import (
	"context"
	"encoding/json"

	"gearshare/internal/app/commands"
	"gearshare/internal/app/policies"
	"gearshare/internal/app/uow"
)

const exportStatementKey = "wallet.export_statement"

type ExportStatementCommand struct {
	OwnerID  string
	Currency string
}

func (c ExportStatementCommand) Key() string { return exportStatementKey }

type ExportStatementResult struct {
	Location string `json:"location"`
}

// ExportStatementHandler snapshots the owner's statement to object storage for
// audit retention.
type ExportStatementHandler struct {
	UoWFactory uow.UoWFactory
	Archiver   policies.StatementArchiver
}

func (h *ExportStatementHandler) Handle(ctx context.Context, cmd ExportStatementCommand) (*ExportStatementResult, error) {
	reader := &GetWalletHandler{UoWFactory: h.UoWFactory}
	res, err := reader.Handle(ctx, GetWalletQuery{OwnerID: cmd.OwnerID, Currency: cmd.Currency})
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(res.Statement)
	if err != nil {
		return nil, err
	}
	location, err := h.Archiver.Archive(ctx, cmd.OwnerID, payload)
	if err != nil {
		return nil, err
	}
	return &ExportStatementResult{Location: location}, nil
}

var _ commands.Handler[ExportStatementCommand, *ExportStatementResult] = (*ExportStatementHandler)(nil)
