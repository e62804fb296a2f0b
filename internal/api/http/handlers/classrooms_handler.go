package handlers

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/classroom-service/internal/api/dto"
	"github.com/spec-kit/classroom-service/internal/cache"
	"github.com/spec-kit/classroom-service/internal/domain"
)

// Classrooms manages teacher classes and student enrolment.
type Classrooms interface {
	CreateClassroom(ctx context.Context, teacherID, name string) (*domain.Classroom, error)
	ListClassrooms(ctx context.Context, teacherID string) ([]domain.Classroom, error)
	JoinClassroom(ctx context.Context, studentID, code string) (*domain.Classroom, error)
}

// Parents links children to parent accounts.
type Parents interface {
	LinkChild(ctx context.Context, parentID, email string) (*domain.Profile, error)
	Children(ctx context.Context, parentID string) ([]domain.ChildSummary, error)
}

// ParentFeed lists recent results of a parent's children.
type ParentFeed interface {
	Feed(ctx context.Context, parentID string, limit int) ([]cache.FeedItem, error)
}

const defaultFeedLimit = 20

// ClassroomsHandler serves classrooms and parent links.
type ClassroomsHandler struct {
	classrooms Classrooms
	parents    Parents
	feed       ParentFeed
}

// NewClassroomsHandler constructs handler.
func NewClassroomsHandler(classrooms Classrooms, parents Parents, feed ParentFeed) *ClassroomsHandler {
	return &ClassroomsHandler{classrooms: classrooms, parents: parents, feed: feed}
}

// Create handles POST /classrooms.
func (h *ClassroomsHandler) Create(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.CreateClassroomRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	classroom, err := h.classrooms.CreateClassroom(c.UserContext(), p.Session.UserID, req.Name)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, classroom)
}

// List handles GET /classrooms for the calling teacher.
func (h *ClassroomsHandler) List(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	classrooms, err := h.classrooms.ListClassrooms(c.UserContext(), p.Session.UserID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, classrooms)
}

// Join handles POST /classrooms/join.
func (h *ClassroomsHandler) Join(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.JoinClassroomRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	classroom, err := h.classrooms.JoinClassroom(c.UserContext(), p.Session.UserID, req.Code)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, classroom)
}

// Children handles GET /parent/children.
func (h *ClassroomsHandler) Children(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	children, err := h.parents.Children(c.UserContext(), p.Session.UserID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, children)
}

// LinkChild handles POST /parent/children.
func (h *ClassroomsHandler) LinkChild(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.LinkChildRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	child, err := h.parents.LinkChild(c.UserContext(), p.Session.UserID, req.Email)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, fiber.Map{
		"student_id":  child.ID,
		"full_name":   child.DisplayName(),
		"class_level": child.ClassLevel,
	})
}

// Feed handles GET /parent/feed?limit=n.
func (h *ClassroomsHandler) Feed(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	limit := c.QueryInt("limit", defaultFeedLimit)
	if limit <= 0 || limit > 50 {
		limit = defaultFeedLimit
	}
	items, err := h.feed.Feed(c.UserContext(), p.Session.UserID, limit)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, items)
}
