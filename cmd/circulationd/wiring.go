package main

import (
	"database/sql"
	"fmt"

	"circulation_recall_daemon/internal/app"
	"circulation_recall_daemon/internal/infra/config"
	idb "circulation_recall_daemon/internal/infra/database"
	"circulation_recall_daemon/internal/infra/directory"
	"circulation_recall_daemon/internal/infra/logger"
	"circulation_recall_daemon/internal/infra/mail"
)

// historySize is how many outcomes per job the operator can see.
const historySize = 10

// daemon holds the wired services of one process.
type daemon struct {
	db      *sql.DB
	jobs    *app.Jobs
	history *app.History
	loans   *app.LoanService
}

func (d *daemon) Close() error {
	return d.db.Close()
}

func newDaemon(cfg *config.AppConfig) (*daemon, error) {
	mainLogger := logger.Component("main")

	db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}
	mainLogger.Info("Database connection established successfully.")

	loanRepo := idb.NewPostgresLoanRepository(db)
	illRepo := idb.NewPostgresILLRepository(db)
	borrowerRepo := idb.NewPostgresBorrowerRepository(db)
	itemRepo := idb.NewPostgresItemRepository(db)
	requestRepo := idb.NewPostgresRequestRepository(db)

	renderer, err := mail.NewRenderer(mail.Branding{
		InstitutionName: cfg.InstitutionName,
		ContactEmail:    cfg.ContactEmail,
		SiteURL:         cfg.SiteURL,
		Signature:       cfg.Signature,
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	if !cfg.IsMailEnabled() {
		mainLogger.Warn("SMTP_HOST is not set, recall letters will not be delivered")
	}
	loanSender := mail.NewSender(cfg, cfg.LoansFromAddress, logger.Component("mail").WithField("sender", "loans"))
	illSender := mail.NewSender(cfg, cfg.ILLFromAddress, logger.Component("mail").WithField("sender", "ill"))

	cal, err := config.LoadCalendar(cfg.HolidaysFile)
	if err != nil {
		db.Close()
		return nil, err
	}

	history := app.NewHistory(historySize)
	recalls := app.NewRecallService(loanRepo, illRepo, borrowerRepo, itemRepo, renderer,
		loanSender, illSender, cfg.SweepBatchSize, logger.Component("recall"))
	borrowers := app.NewBorrowerService(borrowerRepo, directory.NewFile(cfg.BorrowerDirectoryFile),
		logger.Component("borrowers"))
	requests := app.NewRequestService(requestRepo, itemRepo, logger.Component("requests"))
	loans := app.NewLoanService(loanRepo, itemRepo, cal, idb.NewConsistencyChecker(db), logger.Component("loans"))

	return &daemon{
		db:      db,
		jobs:    app.NewJobs(recalls, borrowers, requests, history, logger.Component("jobs")),
		history: history,
		loans:   loans,
	}, nil
}
