package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/transactionprocessing/estatereporting/internal/domain"
)

// DimensionSet is every dimension row of one estate, indexed by durable id.
type DimensionSet struct {
	Merchants map[string]domain.Merchant
	Operators map[string]domain.Operator
	Contracts map[string]domain.Contract
	Products  map[string]domain.Product
}

func newDimensionSet() *DimensionSet {
	return &DimensionSet{
		Merchants: make(map[string]domain.Merchant),
		Operators: make(map[string]domain.Operator),
		Contracts: make(map[string]domain.Contract),
		Products:  make(map[string]domain.Product),
	}
}

// MerchantByReportingID finds a merchant by its compact reporting id.
func (s *DimensionSet) MerchantByReportingID(reportingID int) (domain.Merchant, bool) {
	for _, m := range s.Merchants {
		if m.ReportingID == reportingID {
			return m, true
		}
	}
	return domain.Merchant{}, false
}

// OperatorByReportingID finds an operator by its compact reporting id.
func (s *DimensionSet) OperatorByReportingID(reportingID int) (domain.Operator, bool) {
	for _, o := range s.Operators {
		if o.ReportingID == reportingID {
			return o, true
		}
	}
	return domain.Operator{}, false
}

// SortedMerchants returns merchants ordered by reporting id.
func (s *DimensionSet) SortedMerchants() []domain.Merchant {
	out := make([]domain.Merchant, 0, len(s.Merchants))
	for _, m := range s.Merchants {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReportingID < out[j].ReportingID })
	return out
}

// SortedOperators returns operators ordered by reporting id.
func (s *DimensionSet) SortedOperators() []domain.Operator {
	out := make([]domain.Operator, 0, len(s.Operators))
	for _, o := range s.Operators {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReportingID < out[j].ReportingID })
	return out
}

// SortedProducts returns products ordered by reporting id.
func (s *DimensionSet) SortedProducts() []domain.Product {
	out := make([]domain.Product, 0, len(s.Products))
	for _, p := range s.Products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReportingID < out[j].ReportingID })
	return out
}

// Dimensions is a batch of dimension rows to record.
type Dimensions struct {
	Merchants []domain.Merchant `json:"merchants" yaml:"merchants"`
	Operators []domain.Operator `json:"operators" yaml:"operators"`
	Contracts []domain.Contract `json:"contracts" yaml:"contracts"`
	Products  []domain.Product  `json:"products" yaml:"products"`
}

type dimensionTable struct {
	name     string
	idCol    string
	extraCol string
}

var (
	merchantTable = dimensionTable{name: "merchants", idCol: "merchant_id"}
	operatorTable = dimensionTable{name: "operators", idCol: "operator_id"}
	contractTable = dimensionTable{name: "contracts", idCol: "contract_id", extraCol: "operator_id"}
	productTable  = dimensionTable{name: "products", idCol: "product_id", extraCol: "contract_id"}
)

// DimensionRepo stores merchants, operators, contracts and products, and
// serves them through a per-estate read-through cache that is invalidated
// whenever the estate's dimensions are written.
type DimensionRepo struct {
	db    *sql.DB
	cache *lru.Cache[string, *DimensionSet]

	// gens counts writes per estate. A load only fills the cache when no
	// write committed while it was reading.
	mu   sync.Mutex
	gens map[string]uint64
}

func NewDimensionRepo(db *sql.DB, cacheSize int) (*DimensionRepo, error) {
	if cacheSize <= 0 {
		cacheSize = 128
	}
	cache, err := lru.New[string, *DimensionSet](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("dimension cache: %w", err)
	}
	return &DimensionRepo{db: db, cache: cache, gens: make(map[string]uint64)}, nil
}

// Upsert records the batch in one transaction. New rows get the next
// reporting id of their estate; existing rows keep theirs and only have
// their name refreshed.
func (r *DimensionRepo) Upsert(ctx context.Context, estateID string, dims Dimensions) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("begin", err)
	}
	defer tx.Rollback()

	for _, m := range dims.Merchants {
		if _, err := upsertDimension(ctx, tx, merchantTable, estateID, m.DimensionRef, ""); err != nil {
			return err
		}
	}
	for _, o := range dims.Operators {
		if _, err := upsertDimension(ctx, tx, operatorTable, estateID, o.DimensionRef, ""); err != nil {
			return err
		}
	}
	for _, c := range dims.Contracts {
		if _, err := upsertDimension(ctx, tx, contractTable, estateID, c.DimensionRef, c.OperatorID); err != nil {
			return err
		}
	}
	for _, p := range dims.Products {
		if _, err := upsertDimension(ctx, tx, productTable, estateID, p.DimensionRef, p.ContractID); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return storeErr("commit", err)
	}
	r.Invalidate(estateID)
	return nil
}

func upsertDimension(ctx context.Context, tx *sql.Tx, t dimensionTable, estateID string, ref domain.DimensionRef, extra string) (int, error) {
	var reportingID int
	err := tx.QueryRowContext(ctx,
		fmt.Sprintf("SELECT reporting_id FROM %s WHERE estate_id = ? AND %s = ?", t.name, t.idCol),
		estateID, ref.ID,
	).Scan(&reportingID)
	switch {
	case err == nil:
		q := fmt.Sprintf("UPDATE %s SET name = ? WHERE estate_id = ? AND %s = ?", t.name, t.idCol)
		if _, err := tx.ExecContext(ctx, q, ref.Name, estateID, ref.ID); err != nil {
			return 0, storeErr("update "+t.name, err)
		}
		return reportingID, nil
	case !errors.Is(err, sql.ErrNoRows):
		return 0, storeErr("lookup "+t.name, err)
	}

	if err := tx.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COALESCE(MAX(reporting_id), 0) + 1 FROM %s WHERE estate_id = ?", t.name),
		estateID,
	).Scan(&reportingID); err != nil {
		return 0, storeErr("next reporting id", err)
	}

	if t.extraCol == "" {
		_, err = tx.ExecContext(ctx,
			fmt.Sprintf("INSERT INTO %s (estate_id, %s, reporting_id, name) VALUES (?,?,?,?)", t.name, t.idCol),
			estateID, ref.ID, reportingID, ref.Name,
		)
	} else {
		_, err = tx.ExecContext(ctx,
			fmt.Sprintf("INSERT INTO %s (estate_id, %s, reporting_id, %s, name) VALUES (?,?,?,?,?)", t.name, t.idCol, t.extraCol),
			estateID, ref.ID, reportingID, extra, ref.Name,
		)
	}
	if err != nil {
		return 0, storeErr("insert "+t.name, err)
	}
	return reportingID, nil
}

// Load returns the estate's dimensions, from cache when possible.
func (r *DimensionRepo) Load(ctx context.Context, estateID string) (*DimensionSet, error) {
	if set, ok := r.cache.Get(estateID); ok {
		return set, nil
	}

	gen := r.generation(estateID)
	set := newDimensionSet()
	err := r.scanTable(ctx, merchantTable, estateID, func(ref domain.DimensionRef, _ string) {
		set.Merchants[ref.ID] = domain.Merchant{DimensionRef: ref}
	})
	if err != nil {
		return nil, err
	}
	err = r.scanTable(ctx, operatorTable, estateID, func(ref domain.DimensionRef, _ string) {
		set.Operators[ref.ID] = domain.Operator{DimensionRef: ref}
	})
	if err != nil {
		return nil, err
	}
	err = r.scanTable(ctx, contractTable, estateID, func(ref domain.DimensionRef, operatorID string) {
		set.Contracts[ref.ID] = domain.Contract{DimensionRef: ref, OperatorID: operatorID}
	})
	if err != nil {
		return nil, err
	}
	err = r.scanTable(ctx, productTable, estateID, func(ref domain.DimensionRef, contractID string) {
		set.Products[ref.ID] = domain.Product{DimensionRef: ref, ContractID: contractID}
	})
	if err != nil {
		return nil, err
	}

	r.fill(estateID, gen, set)
	return set, nil
}

// Invalidate drops the cached dimensions of one estate and makes any load
// already in flight skip caching its result.
func (r *DimensionRepo) Invalidate(estateID string) {
	r.mu.Lock()
	r.gens[estateID]++
	r.cache.Remove(estateID)
	r.mu.Unlock()
}

func (r *DimensionRepo) generation(estateID string) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gens[estateID]
}

// fill caches set unless the estate was written since gen was read.
func (r *DimensionRepo) fill(estateID string, gen uint64, set *DimensionSet) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gens[estateID] != gen {
		return false
	}
	r.cache.Add(estateID, set)
	return true
}

func (r *DimensionRepo) scanTable(ctx context.Context, t dimensionTable, estateID string, fn func(domain.DimensionRef, string)) error {
	extra := "''"
	if t.extraCol != "" {
		extra = t.extraCol
	}
	q := fmt.Sprintf("SELECT %s, reporting_id, name, %s FROM %s WHERE estate_id = ?", t.idCol, extra, t.name)
	rows, err := r.db.QueryContext(ctx, q, estateID)
	if err != nil {
		return storeErr("query "+t.name, err)
	}
	defer rows.Close()

	for rows.Next() {
		var ref domain.DimensionRef
		var ext string
		if err := rows.Scan(&ref.ID, &ref.ReportingID, &ref.Name, &ext); err != nil {
			return storeErr("scan "+t.name, err)
		}
		fn(ref, ext)
	}
	return storeErr("rows "+t.name, rows.Err())
}
