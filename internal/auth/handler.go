// Package auth serves the sign-up, sign-in and password-reset views.
package auth

import (
	"net/http"

	"mintylist/backend/internal/identity"
	"mintylist/backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

const (
	msgLoginRequired  = "Please enter email and password"
	msgSignUpRequired = "Please fill all fields"
	msgEmailRequired  = "Please enter your email"
	msgResetSent      = "Password reset link sent to your email."
)

type LoginPayload struct {
	Email    string `form:"email" binding:"required"`
	Password string `form:"password" binding:"required"`
}

type SignUpPayload struct {
	Name     string `form:"name" binding:"required"`
	Email    string `form:"email" binding:"required"`
	Password string `form:"password" binding:"required"`
}

type ResetPayload struct {
	Email string `form:"email" binding:"required"`
}

// page is the data every auth view renders. Password is never echoed back.
type page struct {
	Title   string
	Error   string
	Success string
	Email   string
	Name    string
}

func ShowLogin(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", page{Title: "Login"})
}

// LoginHandler signs the session in and moves to the notes view.
func LoginHandler(c *gin.Context) {
	var payload LoginPayload
	if err := c.ShouldBind(&payload); err != nil {
		c.HTML(http.StatusBadRequest, "login.html", page{Title: "Login", Error: msgLoginRequired, Email: payload.Email})
		return
	}

	s := middleware.CurrentSession(c)
	if _, err := s.Auth.SignIn(c.Request.Context(), payload.Email, payload.Password); err != nil {
		c.HTML(http.StatusUnauthorized, "login.html", page{Title: "Login", Error: identity.Message(err), Email: payload.Email})
		return
	}
	c.Redirect(http.StatusSeeOther, "/notes")
}

func ShowSignUp(c *gin.Context) {
	c.HTML(http.StatusOK, "signup.html", page{Title: "Sign Up"})
}

// SignUpHandler creates the account with its display name and signs the
// session in.
func SignUpHandler(c *gin.Context) {
	var payload SignUpPayload
	if err := c.ShouldBind(&payload); err != nil {
		c.HTML(http.StatusBadRequest, "signup.html", page{Title: "Sign Up", Error: msgSignUpRequired, Email: payload.Email, Name: payload.Name})
		return
	}

	s := middleware.CurrentSession(c)
	if _, err := s.Auth.SignUp(c.Request.Context(), payload.Email, payload.Password, payload.Name); err != nil {
		c.HTML(http.StatusBadRequest, "signup.html", page{Title: "Sign Up", Error: identity.Message(err), Email: payload.Email, Name: payload.Name})
		return
	}
	c.Redirect(http.StatusSeeOther, "/notes")
}

func ShowForgotPassword(c *gin.Context) {
	c.HTML(http.StatusOK, "forgot_password.html", page{Title: "Reset Password"})
}

func ForgotPasswordHandler(c *gin.Context) {
	var payload ResetPayload
	if err := c.ShouldBind(&payload); err != nil {
		c.HTML(http.StatusBadRequest, "forgot_password.html", page{Title: "Reset Password", Error: msgEmailRequired})
		return
	}

	s := middleware.CurrentSession(c)
	if err := s.Auth.SendPasswordReset(c.Request.Context(), payload.Email); err != nil {
		c.HTML(http.StatusBadRequest, "forgot_password.html", page{Title: "Reset Password", Error: identity.Message(err), Email: payload.Email})
		return
	}
	c.HTML(http.StatusOK, "forgot_password.html", page{Title: "Reset Password", Success: msgResetSent})
}

// LogoutHandler ends the signed-in session; the browser session itself stays.
func LogoutHandler(c *gin.Context) {
	middleware.CurrentSession(c).Auth.SignOut()
	c.Redirect(http.StatusSeeOther, "/login")
}
