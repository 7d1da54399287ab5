package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"archon/internal/archonerr"
	"archon/internal/auth"
	"archon/internal/catalog"
)

// registerAuthEndpoints wires §6's POST /auth/login, /auth/refresh,
// GET /auth/me, POST /auth/register, POST /auth/admin-register, grounded
// on its auth_handlers.go loginHandler/registerHandler shape.
func registerAuthEndpoints(api *echo.Group, deps Deps) {
	g := api.Group("/auth")
	g.POST("/login", loginHandler(deps))
	g.POST("/register", registerHandler(deps))
	g.POST("/refresh", refreshHandler(deps))

	restricted := g.Group("")
	restricted.Use(requireAuth(deps))
	restricted.GET("/me", meHandler(deps))
	restricted.POST("/admin-register", adminRegisterHandler(deps), requireRole(catalog.RoleAdmin))
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	Username     string `json:"username"`
	Role         string `json:"role"`
}

func loginHandler(deps Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req loginRequest
		if err := c.Bind(&req); err != nil {
			return archonerr.Validation("malformed login request")
		}
		pair, user, err := deps.AuthService.Login(c.Request().Context(), req.Username, req.Password)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, tokenResponse{
			AccessToken:  pair.AccessToken,
			RefreshToken: pair.RefreshToken,
			TokenType:    "bearer",
			Username:     user.Username,
			Role:         string(user.Role),
		})
	}
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func registerHandler(deps Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req registerRequest
		if err := c.Bind(&req); err != nil {
			return archonerr.Validation("malformed register request")
		}
		user, err := deps.AuthService.Register(c.Request().Context(), req.Username, req.Password)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusCreated, userResponse(user))
	}
}

func adminRegisterHandler(deps Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
			Role     string `json:"role"`
		}
		if err := c.Bind(&req); err != nil {
			return archonerr.Validation("malformed admin-register request")
		}
		role := catalog.Role(req.Role)
		if role == "" {
			role = catalog.RoleViewer
		}
		user, err := deps.AuthService.AdminCreateUser(c.Request().Context(), req.Username, req.Password, role)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusCreated, userResponse(user))
	}
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func refreshHandler(deps Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req refreshRequest
		if err := c.Bind(&req); err != nil {
			return archonerr.Validation("malformed refresh request")
		}
		access, err := deps.AuthService.Refresh(c.Request().Context(), req.RefreshToken)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, map[string]string{"access_token": access, "token_type": "bearer"})
	}
}

func meHandler(deps Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims := auth.ClaimsFrom(c)
		if claims == nil {
			return archonerr.Unauthorized("missing credentials")
		}
		user, err := deps.AuthService.CurrentUser(c.Request().Context(), claims)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, userResponse(user))
	}
}

func userResponse(u *catalog.User) map[string]string {
	return map[string]string{
		"id":       u.ID,
		"username": u.Username,
		"role":     string(u.Role),
	}
}

// requireAuth resolves to the dev bypass or real JWT middleware per the
// disable_auth config flag (§6).
func requireAuth(deps Deps) echo.MiddlewareFunc {
	if deps.Config.Auth.DisableAuth {
		return auth.DevBypassMiddleware()
	}
	return auth.JWTMiddleware([]byte(deps.Config.Auth.SecretKey))
}

// requireRole gates a route to callers whose role allows at least required.
func requireRole(required catalog.Role) echo.MiddlewareFunc {
	return auth.RequireRole(required)
}
