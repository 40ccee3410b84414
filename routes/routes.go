package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/vnkhanh/bookclub-server/controllers"
	"github.com/vnkhanh/bookclub-server/middleware"
)

func SetupRoutes(r *gin.Engine) {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})
	r.GET("/health", controllers.HealthCheck)

	api := r.Group("/api")
	{
		discussions := api.Group("/discussions")
		{
			discussions.POST("", middleware.RateLimitRoomCreate(), controllers.CreateRoom)
			discussions.GET("", controllers.GetActiveRooms)
			discussions.GET("/in-progress", controllers.GetInProgressRooms)
			discussions.GET("/waiting", controllers.GetWaitingRooms)
			discussions.GET("/available", controllers.GetAvailableRooms)
			discussions.GET("/my-rooms", controllers.GetMyRooms)

			discussions.GET("/:roomId", controllers.GetRoomDetail)
			discussions.POST("/:roomId/join", controllers.JoinRoom)
			discussions.POST("/:roomId/leave", controllers.LeaveRoom)
			discussions.DELETE("/:roomId", controllers.DeleteRoom)
			discussions.GET("/:roomId/messages", controllers.GetMessages)
			discussions.POST("/:roomId/ready", controllers.ToggleReady)
			discussions.POST("/:roomId/force-start", controllers.ForceStart)
			discussions.GET("/:roomId/participants", controllers.GetParticipants)
		}
	}

	// Kênh bất đồng bộ: subscribe feed của phòng + gửi chat/enter/leave
	r.GET("/ws/discussions/:roomId", controllers.ServeDiscussionWS)
}
