package memory

import (
	"testing"

	"github.com/dmehra2102/Order-Fulfillment-Pipeline/internal/inventory/application"
	"github.com/dmehra2102/Order-Fulfillment-Pipeline/internal/inventory/infrastructure/ledgertest"
)

func TestLedgerConformance(t *testing.T) {
	ledgertest.Run(t, func(*testing.T) application.StockRepository { return NewLedger() })
}
