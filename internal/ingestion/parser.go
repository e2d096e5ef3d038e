package ingestion

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/transactionprocessing/estatereporting/internal/domain"
	"github.com/transactionprocessing/estatereporting/internal/repository"
)

// Batch is one delivery from the upstream transaction processing system.
type Batch struct {
	repository.Dimensions `yaml:",inline"`
	Transactions          []domain.TransactionFact   `json:"transactions" yaml:"transactions"`
	Settlements           []domain.SettlementRecord  `json:"settlements" yaml:"settlements"`
	SettlementFees        []domain.SettlementFeeLine `json:"settlement_fees" yaml:"settlement_fees"`
}

// ParseBatch decodes a batch. format must be one of: json, yaml.
func ParseBatch(data []byte, format string) (*Batch, error) {
	var b Batch
	switch strings.ToLower(format) {
	case "json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&b); err != nil {
			return nil, fmt.Errorf("%w: decode json batch: %v", domain.ErrValidation, err)
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &b); err != nil {
			return nil, fmt.Errorf("%w: decode yaml batch: %v", domain.ErrValidation, err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported batch format %q", domain.ErrValidation, format)
	}
	return &b, nil
}

// ParseBatchFile reads a batch file, picking the format from its extension.
func ParseBatchFile(path string) (*Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read batch: %w", err)
	}
	return ParseBatch(data, strings.TrimPrefix(filepath.Ext(path), "."))
}
