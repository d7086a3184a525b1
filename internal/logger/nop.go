package logger

import (
	"github.com/leandrodaf/midihost/sdk/contracts"
	"go.uber.org/zap"
)

// NewNopLogger cria um logger que descarta tudo. Útil em testes.
func NewNopLogger() contracts.Logger {
	return &ZapLogger{logger: zap.NewNop(), level: contracts.InfoLevel}
}
