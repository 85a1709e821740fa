package routes

import (
	"fmt"
	"net/http"
	"time"

	"mintylist/backend/internal/auth"
	"mintylist/backend/internal/handlers"
	"mintylist/backend/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps is what the router needs from the rest of the server.
type Deps struct {
	Sessions      middleware.SessionOpener
	Notes         handlers.NoteService
	Verifier      middleware.TokenVerifier
	SessionTTL    time.Duration
	SecureCookies bool
}

func SetupRoutes(router *gin.Engine, d Deps) error {
	tmpl, err := handlers.Templates()
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}
	router.SetHTMLTemplate(tmpl)

	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	views := router.Group("/")
	views.Use(middleware.SessionMiddleware(d.Sessions, d.SessionTTL, d.SecureCookies))
	{
		views.GET("/", func(c *gin.Context) {
			c.Redirect(http.StatusSeeOther, "/notes")
		})
		views.GET("/signup", auth.ShowSignUp)
		views.POST("/signup", auth.SignUpHandler)
		views.GET("/login", auth.ShowLogin)
		views.POST("/login", auth.LoginHandler)
		views.GET("/forgot-password", auth.ShowForgotPassword)
		views.POST("/forgot-password", auth.ForgotPasswordHandler)
		views.POST("/logout", auth.LogoutHandler)

		notes := views.Group("/notes")
		notes.Use(middleware.RequireSignedIn())
		{
			notes.GET("", handlers.ShowNotes)
			notes.POST("", handlers.SaveNote)
			notes.POST("/cancel", handlers.CancelEdit)
			notes.POST("/:id/edit", handlers.EditNote)
			notes.POST("/:id/delete", handlers.RemoveNote)
		}
	}

	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(d.Verifier))
	{
		api.GET("/notes", handlers.ListNotes(d.Notes))
		api.GET("/notes/:id", handlers.GetNote(d.Notes))
		api.POST("/notes", handlers.CreateNote(d.Notes))
		api.PUT("/notes/:id", handlers.UpdateNote(d.Notes))
		api.DELETE("/notes/:id", handlers.DeleteNote(d.Notes))
	}
	return nil
}
