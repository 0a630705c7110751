package main

import (
	"fmt"
	"net/http"

	"github.com/cmlabs-hris/attendance-import-go/internal/config"
	appHTTP "github.com/cmlabs-hris/attendance-import-go/internal/handler/http"
	"github.com/cmlabs-hris/attendance-import-go/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-import-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-import-go/internal/repository/postgresql"
	"github.com/cmlabs-hris/attendance-import-go/internal/service/importer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	dsn := cfg.DatabaseURL()
	db, err := database.NewPostgreSQLDB(dsn, cfg.Database.MaxConns, cfg.Database.MinConns)
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}

	userRepo := postgresql.NewUserRepository(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	assignmentRepo := postgresql.NewAssignmentRepository(db)
	attendanceRepo := postgresql.NewAttendanceRepository(db)
	auditRepo := postgresql.NewAuditLogRepository(db)
	txManager := postgresql.NewTxManager(db)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	importService := importer.NewImportService(
		userRepo,
		employeeRepo,
		assignmentRepo,
		attendanceRepo,
		auditRepo,
		txManager,
		cfg.Import,
	)

	attendanceHandler := appHTTP.NewAttendanceHandler(importService)

	router := appHTTP.NewRouter(JWTService, attendanceHandler)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	fmt.Printf("Server running at http://localhost%s\n", port)
	if err := http.ListenAndServe(port, router); err != nil {
		fmt.Println("Server error:", err)
	}
}
