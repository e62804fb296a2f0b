package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/classroom-service/internal/api/http/handlers"
	"github.com/spec-kit/classroom-service/internal/auth"
	"github.com/spec-kit/classroom-service/internal/domain"
	"github.com/spec-kit/classroom-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Navigation     *handlers.NavigationHandler
	Profiles       *handlers.ProfilesHandler
	Learning       *handlers.LearningHandler
	Classrooms     *handlers.ClassroomsHandler
	Storage        *handlers.StorageHandler
	Rest           *handlers.RestHandler
	Admin          *handlers.AdminHandler
	Metrics        *observability.Metrics
	AuthMiddleware *auth.AuthMiddleware
	ProfileLoader  auth.ProfileLoader
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", cfg.Metrics.Handler())
	}

	authGroup := app.Group("/auth")
	authGroup.Post("/sign-up", cfg.Auth.SignUp)
	authGroup.Post("/sign-in", cfg.Auth.SignIn)
	authGroup.Post("/sign-out", cfg.Auth.SignOut)
	authGroup.Get("/session", cfg.Auth.Session)
	authGroup.Post("/session/refresh", cfg.Auth.Refresh)

	app.Post("/navigation/resolve", cfg.AuthMiddleware.Optional, cfg.Navigation.Resolve)

	app.Get("/storage/:bucket/*", cfg.Storage.Download)

	// per-route so unmatched paths still fall through to 404
	authn := cfg.AuthMiddleware.Handle
	anyProfile := auth.RequireRole(cfg.ProfileLoader)
	staff := auth.RequireRole(cfg.ProfileLoader, domain.RoleTeacher, domain.RoleAdmin, domain.RoleSuperAdmin)
	students := auth.RequireRole(cfg.ProfileLoader, domain.RoleStudent, domain.RoleSuperAdmin)
	teachers := auth.RequireRole(cfg.ProfileLoader, domain.RoleTeacher)
	parents := auth.RequireRole(cfg.ProfileLoader, domain.RoleParent)
	admins := auth.RequireRole(cfg.ProfileLoader, domain.RoleAdmin, domain.RoleSuperAdmin)

	app.Get("/profiles/me", authn, cfg.Profiles.Me)
	app.Put("/profiles/me", authn, cfg.Profiles.Setup)
	app.Post("/profiles/me/activity", authn, anyProfile, cfg.Profiles.Activity)

	app.Get("/topics/:id/quiz", authn, anyProfile, cfg.Learning.Quiz)
	app.Post("/topics/:id/quiz", authn, students, cfg.Learning.SubmitQuiz)
	app.Post("/exams/:id/sessions", authn, students, cfg.Learning.StartExam)
	app.Get("/exam-sessions/:id", authn, students, cfg.Learning.ExamSession)
	app.Put("/exam-sessions/:id/answers", authn, students, cfg.Learning.Answer)
	app.Post("/exam-sessions/:id/submit", authn, students, cfg.Learning.SubmitExam)
	app.Get("/leaderboard", authn, anyProfile, cfg.Learning.Leaderboard)
	app.Get("/leaderboard/export", authn, staff, cfg.Learning.ExportLeaderboard)

	app.Get("/classrooms", authn, teachers, cfg.Classrooms.List)
	app.Post("/classrooms", authn, teachers, cfg.Classrooms.Create)
	app.Post("/classrooms/join", authn, students, cfg.Classrooms.Join)
	app.Get("/parent/children", authn, parents, cfg.Classrooms.Children)
	app.Post("/parent/children", authn, parents, cfg.Classrooms.LinkChild)
	app.Get("/parent/feed", authn, parents, cfg.Classrooms.Feed)

	app.Put("/storage/:bucket/*", authn, staff, cfg.Storage.Upload)

	app.Get("/rest/:table", authn, anyProfile, cfg.Rest.List)
	app.Post("/rest/:table", authn, anyProfile, cfg.Rest.Insert)
	app.Patch("/rest/:table", authn, anyProfile, cfg.Rest.Update)
	app.Delete("/rest/:table", authn, anyProfile, cfg.Rest.Delete)

	app.Get("/admin/stats", authn, admins, cfg.Admin.Stats)
	app.Get("/admin/users", authn, admins, cfg.Admin.Users)
	app.Put("/admin/users/:id/role", authn, admins, cfg.Admin.ChangeRole)
	app.Delete("/admin/users/:id", authn, admins, cfg.Admin.DeleteUser)
}
