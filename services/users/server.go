package users

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/corebank/transferd/services/auth"
)

// Identity is the slice of the user service the HTTP layer needs.
// *Service implements it.
type Identity interface {
	Signup(username, password, firstName, lastName string) (string, error)
	Signin(username, password string) (string, error)
	Update(userID, password, firstName, lastName string) error
	Search(filter string) ([]*User, error)
}

// NewServer exposes signup/signin, profile update and recipient search
// over HTTP, issuing bearer tokens.
func NewServer(service Identity, tokens *auth.TokenManager) *Server {
	return &Server{
		service: service,
		tokens:  tokens,
		l:       zap.L().Named("users_server"),
	}
}

type Server struct {
	service Identity
	tokens  *auth.TokenManager
	l       *zap.Logger
}

func (s *Server) Register(r fiber.Router) {
	r.Post("/signup", s.Signup)
	r.Post("/signin", s.Signin)
	r.Put("/update", auth.Middleware(s.tokens), s.Update)
	r.Get("/bulk", s.Bulk)
}

type signupRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (r *signupRequest) validate() string {
	switch {
	case strings.TrimSpace(r.Username) == "":
		return "username is required"
	case len(r.Password) < 6:
		return "password must be at least 6 characters"
	case strings.TrimSpace(r.FirstName) == "":
		return "first_name is required"
	default:
		return ""
	}
}

func (s *Server) Signup(c *fiber.Ctx) error {
	var req signupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": msg})
	}

	userID, err := s.service.Signup(req.Username, req.Password, req.FirstName, req.LastName)
	if err != nil {
		if err == ErrUserExists {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "username already taken"})
		}
		s.l.Error("Signup failed.", zap.Error(err), zap.String("username", req.Username))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "internal error"})
	}

	token, err := s.tokens.Issue(userID)
	if err != nil {
		s.l.Error("Failed to issue token.", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "internal error"})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"user_id": userID, "token": token})
}

type signinRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) Signin(c *fiber.Ctx) error {
	var req signinRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid body"})
	}

	userID, err := s.service.Signin(req.Username, req.Password)
	if err != nil {
		if err == ErrInvalidCredentials {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "invalid credentials"})
		}
		s.l.Error("Signin failed.", zap.Error(err), zap.String("username", req.Username))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "internal error"})
	}

	token, err := s.tokens.Issue(userID)
	if err != nil {
		s.l.Error("Failed to issue token.", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "internal error"})
	}
	return c.JSON(fiber.Map{"user_id": userID, "token": token})
}

type updateRequest struct {
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (r *updateRequest) validate() string {
	switch {
	case len(r.Password) < 6:
		return "password must be at least 6 characters"
	case strings.TrimSpace(r.FirstName) == "":
		return "first_name is required"
	default:
		return ""
	}
}

func (s *Server) Update(c *fiber.Ctx) error {
	var req updateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": msg})
	}

	userID := auth.HolderID(c)
	if err := s.service.Update(userID, req.Password, req.FirstName, req.LastName); err != nil {
		if err == ErrUserNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "user not found"})
		}
		s.l.Error("Update failed.", zap.Error(err), zap.String("user_id", userID))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "internal error"})
	}
	return c.JSON(fiber.Map{"message": "user updated"})
}

// Bulk lists users matching the filter by first or last name. An empty
// filter returns everyone; password hashes never leave the service.
func (s *Server) Bulk(c *fiber.Ctx) error {
	found, err := s.service.Search(c.Query("filter"))
	if err != nil {
		s.l.Error("Search failed.", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "internal error"})
	}

	out := make([]fiber.Map, len(found))
	for i, u := range found {
		out[i] = fiber.Map{
			"user_id":    u.UserID,
			"username":   u.Username,
			"first_name": u.FirstName,
			"last_name":  u.LastName,
		}
	}
	return c.JSON(fiber.Map{"users": out})
}
