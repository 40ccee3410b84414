package main

import (
	"log"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/vnkhanh/bookclub-server/config"
	"github.com/vnkhanh/bookclub-server/controllers"
	"github.com/vnkhanh/bookclub-server/engine"
	"github.com/vnkhanh/bookclub-server/hub"
	"github.com/vnkhanh/bookclub-server/routes"
)

func main() {
	// Nạp .env nếu có (local dev)
	_ = godotenv.Load()

	// Kết nối DB + AutoMigrate
	config.ConnectDB()

	// Hub broadcast + Room Engine
	broadcastHub := hub.NewHub()
	roomEngine := engine.NewRoomEngine(config.DB, broadcastHub)
	controllers.Setup(roomEngine, broadcastHub)

	// Tạo instance router
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			allowed := os.Getenv("ALLOWED_ORIGIN")
			return allowed == "" || origin == allowed
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Route test server
	r.GET("/", func(c *gin.Context) {
		c.String(200, "Bookclub server is running")
	})

	if err := r.SetTrustedProxies(nil); err != nil {
		panic(err)
	}

	// Setup routes khác
	routes.SetupRoutes(r)

	// Lấy PORT từ biến môi trường
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server listening on port %s\n", port)
	r.Run(":" + port)
}
