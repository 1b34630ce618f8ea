package statement

import (
	"context"

	"github.com/ametlin/budgetlens/internal/jobs"
)

// ParseJobHandler adapts the parser to the job queue: the uploaded file
// carried by the job is parsed and the resulting transactions are stored
// on the job for the client to poll.
func ParseJobHandler(p *Parser) jobs.Handler {
	return func(ctx context.Context, job *jobs.ParseStatementJob) error {
		txs, err := p.ParseFile(job.Filename, job.Data)
		if err != nil {
			return err
		}
		job.Transactions = txs
		return nil
	}
}
