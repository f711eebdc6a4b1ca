package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type ChunkStatus string

const (
	ChunkStatusPending   ChunkStatus = "pending"
	ChunkStatusCommitted ChunkStatus = "committed"
	ChunkStatusFailed    ChunkStatus = "failed"
)

type BulkDepositEntry struct {
	MemberID string          `json:"member_id" validate:"required,max=64"`
	Amount   decimal.Decimal `json:"amount"`
}

// BulkDepositRequest records one deposit per entry, all on the same date.
type BulkDepositRequest struct {
	Date        time.Time          `json:"date"`
	Description string             `json:"description" validate:"max=500"`
	Entries     []BulkDepositEntry `json:"entries" validate:"required,min=1,dive"`
}

func (p *BulkDepositRequest) Validate() error {
	p.Description = strings.TrimSpace(p.Description)
	for i := range p.Entries {
		p.Entries[i].MemberID = strings.TrimSpace(p.Entries[i].MemberID)
	}
	if err := validateStruct(p); err != nil {
		return err
	}
	for i, e := range p.Entries {
		if !e.Amount.IsPositive() {
			return NewValidationError(fmt.Sprintf("entries[%d].amount", i), "must be greater than zero")
		}
	}
	return nil
}

// Chunks splits the entries into consecutive slices of at most size entries.
func (p BulkDepositRequest) Chunks(size int) [][]BulkDepositEntry {
	if size <= 0 {
		size = len(p.Entries)
	}
	var chunks [][]BulkDepositEntry
	for start := 0; start < len(p.Entries); start += size {
		end := min(start+size, len(p.Entries))
		chunks = append(chunks, p.Entries[start:end])
	}
	return chunks
}

// ChunkTransactions builds the deposits of one chunk.
func (p BulkDepositRequest) ChunkTransactions(entries []BulkDepositEntry) []*Transaction {
	txns := make([]*Transaction, 0, len(entries))
	for _, e := range entries {
		txns = append(txns, &Transaction{
			MemberID:    e.MemberID,
			Type:        TransactionDeposit,
			Amount:      e.Amount,
			Date:        p.Date,
			Description: p.Description,
		})
	}
	return txns
}

type BulkChunkResult struct {
	Index     int         `json:"index"`
	Size      int         `json:"size"`
	MemberIDs []string    `json:"member_ids"`
	Status    ChunkStatus `json:"status"`
	Error     string      `json:"error,omitempty"`
}

type BulkDepositResult struct {
	JobID     string            `json:"job_id,omitempty"`
	Chunks    []BulkChunkResult `json:"chunks"`
	Committed int               `json:"committed"`
	Failed    int               `json:"failed"`
	Pending   int               `json:"pending"`
}

// Tally recounts the chunk statuses.
func (r *BulkDepositResult) Tally() {
	r.Committed, r.Failed, r.Pending = 0, 0, 0
	for _, c := range r.Chunks {
		switch c.Status {
		case ChunkStatusCommitted:
			r.Committed++
		case ChunkStatusFailed:
			r.Failed++
		default:
			r.Pending++
		}
	}
}

// BulkDepositJob is the queued form of an asynchronous bulk deposit.
type BulkDepositJob struct {
	JobID     string             `json:"job_id"`
	GroupID   string             `json:"group_id"`
	ChunkSize int                `json:"chunk_size"`
	Request   BulkDepositRequest `json:"request"`
}

// PendingChunks lists every chunk of the request in pending state.
func PendingChunks(p BulkDepositRequest, size int) []BulkChunkResult {
	chunks := p.Chunks(size)
	results := make([]BulkChunkResult, 0, len(chunks))
	for i, c := range chunks {
		results = append(results, BulkChunkResult{
			Index:     i,
			Size:      len(c),
			MemberIDs: chunkMemberIDs(c),
			Status:    ChunkStatusPending,
		})
	}
	return results
}

func chunkMemberIDs(entries []BulkDepositEntry) []string {
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.MemberID)
	}
	return ids
}
