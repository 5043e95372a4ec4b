package reports

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/fundledger/internal/date"
	"github.com/vadiminshakov/fundledger/internal/domain"
)

const defaultReportDir = "./reports"

// Store writes balance reports as JSON files, one per name.
type Store struct {
	dir string
}

// Dir is where reports go: FUNDLEDGER_REPORT_DIR or ./reports.
func Dir() string {
	if dir := os.Getenv("FUNDLEDGER_REPORT_DIR"); dir != "" {
		return dir
	}
	return defaultReportDir
}

// NewStore creates dir if needed.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		dir = Dir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create report dir")
	}
	return &Store{dir: dir}, nil
}

// Report is every account's balance at the end of one day.
type Report struct {
	GeneratedAt time.Time       `json:"generated_at"`
	Date        date.Date       `json:"date"`
	Currency    string          `json:"currency"`
	Accounts    []AccountReport `json:"accounts"`
	Funds       []FundReport    `json:"funds"`
}

type AccountReport struct {
	Name    string                `json:"name"`
	Type    domain.AccountType    `json:"type"`
	Balance domain.AccountBalance `json:"balance"`
}

// FundReport is one fund summed over all accounts, debt counted negatively.
type FundReport struct {
	Name    string          `json:"name"`
	Settled decimal.Decimal `json:"settled"`
	Pending decimal.Decimal `json:"pending"`
}

// storedReport is the on-disk shape. Balances are decoded as plain amounts
// because AccountBalance is only built through the ledger.
type storedReport struct {
	GeneratedAt time.Time       `json:"generated_at"`
	Date        date.Date       `json:"date"`
	Currency    string          `json:"currency"`
	Accounts    []storedAccount `json:"accounts"`
	Funds       []FundReport    `json:"funds"`
}

type storedAccount struct {
	Name    string             `json:"name"`
	Type    domain.AccountType `json:"type"`
	Balance struct {
		Account domain.AccountID    `json:"account"`
		Settled []domain.FundAmount `json:"settled"`
		Pending []domain.FundAmount `json:"pending"`
	} `json:"balance"`
}

// Path returns the file a report with this name is written to.
func (s *Store) Path(name string) string {
	fileName := sanitizeName(name)
	if fileName == "" {
		fileName = "balances"
	}
	return filepath.Join(s.dir, fmt.Sprintf("%s.json", fileName))
}

// Save writes the report atomically via a temp file.
func (s *Store) Save(name string, r Report) (string, error) {
	payload, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "encode report")
	}

	path := s.Path(name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return "", errors.Wrap(err, "write report temp file")
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", errors.Wrap(err, "persist report")
	}
	return path, nil
}

// Load reads a saved report. A missing report is (nil, nil).
func (s *Store) Load(name string) (*Report, error) {
	payload, err := os.ReadFile(s.Path(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "read report")
	}

	var stored storedReport
	if err := json.Unmarshal(payload, &stored); err != nil {
		return nil, errors.Wrap(err, "decode report")
	}

	r := &Report{
		GeneratedAt: stored.GeneratedAt,
		Date:        stored.Date,
		Currency:    stored.Currency,
		Funds:       stored.Funds,
	}
	for _, a := range stored.Accounts {
		b, err := domain.NewAccountBalance(a.Balance.Account, a.Type, a.Balance.Settled, a.Balance.Pending)
		if err != nil {
			return nil, errors.Wrapf(err, "decode report account %q", a.Name)
		}
		r.Accounts = append(r.Accounts, AccountReport{Name: a.Name, Type: a.Type, Balance: b})
	}
	return r, nil
}

func sanitizeName(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))

	var b strings.Builder
	prevDash := false
	for _, r := range value {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			prevDash = false
			continue
		}
		if !prevDash {
			b.WriteByte('-')
			prevDash = true
		}
	}
	return strings.Trim(b.String(), "-")
}
