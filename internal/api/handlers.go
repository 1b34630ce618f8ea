package api

import (
	"errors"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/ametlin/budgetlens/internal/domain"
	"github.com/ametlin/budgetlens/internal/jobs"
	"github.com/ametlin/budgetlens/internal/statement"
	"github.com/ametlin/budgetlens/internal/store"
)

// parseResponse is the payload of a successful synchronous parse.
type parseResponse struct {
	Success      bool                 `json:"success"`
	Transactions []domain.Transaction `json:"transactions"`
	Count        int                  `json:"count"`
	TotalIncome  float64              `json:"totalIncome"`
	TotalExpense float64              `json:"totalExpense"`
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// handleParse handles POST /api/statements/parse: a multipart upload
// parsed synchronously, returning the transactions for review.
func (s *Server) handleParse(c *fiber.Ctx) error {
	filename, data, err := s.readUpload(c)
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, err.Error())
	}

	txs, err := s.parser.ParseFile(filename, data)
	if err != nil {
		// Parse errors are always whole-file problems; row-level defects
		// never surface here. Empty uploads are the client's fault.
		status := fiber.StatusUnprocessableEntity
		if errors.Is(err, statement.ErrEmptyFile) {
			status = fiber.StatusBadRequest
		}
		return writeError(c, status, err.Error())
	}

	resp := parseResponse{Success: true, Transactions: txs, Count: len(txs)}
	for _, tx := range txs {
		switch tx.Type {
		case domain.TypeIncome:
			resp.TotalIncome += tx.Amount
		case domain.TypeExpense:
			resp.TotalExpense += tx.Amount
		}
	}
	return c.JSON(resp)
}

// handleCreateParseJob handles POST /api/statements/jobs: the upload is
// queued and parsed by a background worker; poll the job for the result.
func (s *Server) handleCreateParseJob(c *fiber.Ctx) error {
	if s.publisher == nil {
		return writeError(c, fiber.StatusServiceUnavailable, "job queue is not configured")
	}

	filename, data, err := s.readUpload(c)
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, err.Error())
	}

	// A worker can start mutating the job the moment it is enqueued, so
	// everything the response needs is fixed before publishing and no
	// field of the job is read afterwards.
	job := &jobs.ParseStatementJob{
		ID:       uuid.New().String(),
		Filename: filename,
		Data:     data,
	}
	jobID := job.ID

	if err := s.publisher.PublishParse(c.Context(), job); err != nil {
		s.log.Error().Err(err).Str("filename", filename).Msg("Failed to enqueue parse job")
		return writeError(c, fiber.StatusInternalServerError, "failed to enqueue parse job")
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"success": true,
		"job_id":  jobID,
		"status":  jobs.StatusPending,
	})
}

func (s *Server) handleGetParseJob(c *fiber.Ctx) error {
	if s.jobStore == nil {
		return writeError(c, fiber.StatusServiceUnavailable, "job queue is not configured")
	}

	job, err := s.jobStore.GetJob(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, fiber.StatusNotFound, "job not found")
	}
	return c.JSON(job)
}

// handleImportExpenses handles POST /api/expenses/import: the reviewed
// transaction list, converted into persistent expense entries.
func (s *Server) handleImportExpenses(c *fiber.Ctx) error {
	if s.store == nil {
		return writeError(c, fiber.StatusServiceUnavailable, "expense store is not configured")
	}

	var body struct {
		Transactions []domain.Transaction `json:"transactions"`
	}
	if err := c.BodyParser(&body); err != nil {
		return writeError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if len(body.Transactions) == 0 {
		return writeError(c, fiber.StatusBadRequest, "no transactions to import")
	}

	n, err := s.store.ImportTransactions(c.Context(), body.Transactions)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to import transactions")
		return writeError(c, fiber.StatusInternalServerError, "failed to import transactions")
	}

	return c.JSON(fiber.Map{"success": true, "imported": n})
}

func (s *Server) handleListExpenses(c *fiber.Ctx) error {
	if s.store == nil {
		return writeError(c, fiber.StatusServiceUnavailable, "expense store is not configured")
	}

	expenses, err := s.store.ListExpenses(c.Context(), c.Query("month"))
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to list expenses")
		return writeError(c, fiber.StatusInternalServerError, "failed to list expenses")
	}
	if expenses == nil {
		expenses = []store.Expense{}
	}

	return c.JSON(fiber.Map{"expenses": expenses, "count": len(expenses)})
}

func (s *Server) handleSummary(c *fiber.Ctx) error {
	if s.store == nil {
		return writeError(c, fiber.StatusServiceUnavailable, "expense store is not configured")
	}

	month := c.Query("month")
	if month == "" {
		month = store.MonthOf(time.Now())
	}

	summaries, err := s.store.MonthlySummary(c.Context(), month)
	if err != nil {
		s.log.Error().Err(err).Str("month", month).Msg("Failed to build summary")
		return writeError(c, fiber.StatusInternalServerError, "failed to build summary")
	}
	if summaries == nil {
		summaries = []store.CategorySummary{}
	}

	return c.JSON(fiber.Map{"month": month, "categories": summaries})
}

func (s *Server) handleListBudgets(c *fiber.Ctx) error {
	if s.store == nil {
		return writeError(c, fiber.StatusServiceUnavailable, "expense store is not configured")
	}

	budgets, err := s.store.ListBudgets(c.Context(), c.Query("month"))
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to list budgets")
		return writeError(c, fiber.StatusInternalServerError, "failed to list budgets")
	}
	if budgets == nil {
		budgets = []store.Budget{}
	}

	return c.JSON(fiber.Map{"budgets": budgets, "count": len(budgets)})
}

func (s *Server) handleUpsertBudget(c *fiber.Ctx) error {
	if s.store == nil {
		return writeError(c, fiber.StatusServiceUnavailable, "expense store is not configured")
	}

	var body store.Budget
	if err := c.BodyParser(&body); err != nil {
		return writeError(c, fiber.StatusBadRequest, "invalid request body")
	}

	budget, err := s.store.UpsertBudget(c.Context(), body)
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, err.Error())
	}

	return c.JSON(fiber.Map{"success": true, "budget": budget})
}

// readUpload extracts the uploaded statement file from a multipart form.
func (s *Server) readUpload(c *fiber.Ctx) (string, []byte, error) {
	header, err := c.FormFile("file")
	if err != nil {
		return "", nil, errors.New("no file uploaded; use form field 'file'")
	}

	f, err := header.Open()
	if err != nil {
		return "", nil, errors.New("uploaded file could not be read")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", nil, errors.New("uploaded file could not be read")
	}
	return header.Filename, data, nil
}
