package main

import (
	"context"
	"fmt"
	"os"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/robel-ketema/wayfinder-api/api"
	api_i "github.com/robel-ketema/wayfinder-api/api/i"
	"github.com/robel-ketema/wayfinder-api/api/identity"
	navapi "github.com/robel-ketema/wayfinder-api/api/nav"
	"github.com/robel-ketema/wayfinder-api/config"
	"github.com/robel-ketema/wayfinder-api/infrastruture/livecache"
	logger "github.com/robel-ketema/wayfinder-api/infrastruture/log"
	mqttio "github.com/robel-ketema/wayfinder-api/infrastruture/mqtt"
	"github.com/robel-ketema/wayfinder-api/infrastruture/repo"
	"github.com/robel-ketema/wayfinder-api/infrastruture/token"
	"github.com/robel-ketema/wayfinder-api/service"
	"github.com/robel-ketema/wayfinder-api/service/i"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Global variables for dependencies
var (
	mongoClient    *mongo.Client
	redisClient    *redis.Client
	mqttClient     paho.Client
	userRepo       i.UserRepo
	gridRepo       i.GridRepo
	routeRepo      i.RouteRepo
	liveCache      i.LiveCache
	sensorSource   i.SensorSource
	voicePublisher i.VoicePublisher
	sessionManager *service.SessionManager
	plannerService i.Planner
	jwtTokenizer   i.Tokenizer
	authService    i.Authenticator
	authController api_i.Controller
	navController  api_i.Controller
	router         *api.Router
	appLogger      i.Logger
)

func initMongo(ctx context.Context) {
	uri := fmt.Sprintf("mongodb://%s:%s@%s:%v", config.Envs.DBUser, config.Envs.DBPassword, config.Envs.DBHost, config.Envs.DBPort)

	clientOptions := options.Client().ApplyURI(uri)
	var err error
	mongoClient, err = mongo.Connect(ctx, clientOptions)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Failed to connect to MongoDB: %v", err))
		os.Exit(1)
	}
	if err = mongoClient.Ping(ctx, nil); err != nil {
		appLogger.Error(fmt.Sprintf("MongoDB ping failed: %v", err))
		os.Exit(1)
	}
	appLogger.Info("Connected to MongoDB")
}

func initRedis(ctx context.Context) {
	redisClient = redis.NewClient(&redis.Options{
		Addr:     config.Envs.RedisAddr,
		Password: config.Envs.RedisPassword,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		appLogger.Error(fmt.Sprintf("Redis ping failed: %v", err))
		os.Exit(1)
	}
	appLogger.Info("Connected to Redis")
}

func initMQTT() {
	var err error
	mqttClient, err = mqttio.Dial(config.Envs.MQTTBroker, config.Envs.MQTTClientID)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Failed to connect to MQTT broker: %v", err))
		os.Exit(1)
	}
	appLogger.Info("Connected to MQTT broker")
}

func initRepos(client *mongo.Client) {
	userRepo = repo.NewUserRepo(client, config.Envs.DBName, "users")
	gridRepo = repo.NewGridRepo(client, config.Envs.DBName, "grids")
	routeRepo = repo.NewRouteRepo(client, config.Envs.DBName, "routes")
	appLogger.Info("Repositories initialized")
}

func initLiveCache() {
	var err error
	liveCache, err = livecache.NewRedisLiveCache(redisClient, time.Duration(config.Envs.SessionIdleMin)*time.Minute)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating live cache: %v", err))
		os.Exit(1)
	}
	appLogger.Info("Live cache initialized")
}

func initSensorGateway() {
	sensorLogger, err := logger.New("SENSORS", config.ColorCyan, os.Stdout)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating sensor gateway logger: %v", err))
		os.Exit(1)
	}

	sensorSource, err = mqttio.NewSensorGateway(mqttClient, sensorLogger)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating sensor gateway: %v", err))
		os.Exit(1)
	}
	appLogger.Info("Sensor gateway initialized")
}

func initVoicePublisher() {
	voiceLogger, err := logger.New("VOICE", config.ColorYellow, os.Stdout)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating voice publisher logger: %v", err))
		os.Exit(1)
	}

	voicePublisher, err = mqttio.NewVoiceSpeaker(mqttClient, voiceLogger)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating voice publisher: %v", err))
		os.Exit(1)
	}
	appLogger.Info("Voice publisher initialized")
}

func initSessionManager() {
	sessionLogger, err := logger.New("SESSIONS", config.ColorCyan, os.Stdout)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating session manager logger: %v", err))
		os.Exit(1)
	}

	sessionManager, err = service.NewSessionManager(&service.SessionManagerConfig{
		Sensors:        sensorSource,
		Voice:          voicePublisher,
		Cache:          liveCache,
		GridRepo:       gridRepo,
		RouteRepo:      routeRepo,
		Logger:         sessionLogger,
		GridSize:       config.Envs.GridSize,
		CellSize:       config.Envs.CellSize,
		StepThreshold:  config.Envs.StepThreshold,
		StepRefractory: time.Duration(config.Envs.StepRefractoryMs) * time.Millisecond,
		IdleTimeout:    time.Duration(config.Envs.SessionIdleMin) * time.Minute,
	})
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating session manager: %v", err))
		os.Exit(1)
	}
	appLogger.Info("Session manager initialized")
}

func initPlanner() {
	plannerLogger, err := logger.New("PLANNER", config.ColorPurple, os.Stdout)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating planner logger: %v", err))
		os.Exit(1)
	}

	plannerService, err = service.NewPlanner(&service.PlannerConfig{
		GridRepo:  gridRepo,
		RouteRepo: routeRepo,
		Voice:     voicePublisher,
		Sessions:  sessionManager,
		Logger:    plannerLogger,
		GridSize:  config.Envs.GridSize,
		CellSize:  config.Envs.CellSize,
	})
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating planner: %v", err))
		os.Exit(1)
	}
	appLogger.Info("Planner initialized")
}

func initJWTTokenizer() {
	jwtTokenizer = token.NewJwtService(config.Envs.JWTSecret, config.Envs.JWTIssuer)
	appLogger.Info("JWT Tokenizer initialized")
}

func initAuthService() {
	var err error
	authService, err = service.NewAuth(userRepo, jwtTokenizer)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating auth service: %v", err))
		os.Exit(1)
	}
	appLogger.Info("Auth service initialized")
}

func initAuthController() {
	authController = identity.NewIdentityServer(authService)
	appLogger.Info("Auth controller initialized")
}

func initNavController() {
	var err error
	navController, err = navapi.NewNavController(plannerService, sessionManager, liveCache)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating nav controller: %v", err))
		os.Exit(1)
	}
	appLogger.Info("Nav controller initialized")
}

func initRouter(t i.Tokenizer) {
	gin.SetMode(config.Envs.GinMode)
	router = api.NewRouter(api.Config{
		Addr:                    fmt.Sprintf("%s:%v", config.Envs.HostIP, config.Envs.RESTPort),
		BaseURL:                 "/api",
		Controllers:             []api_i.Controller{authController, navController},
		AuthorizationMiddleware: identity.Authoriz(t),
	})
	appLogger.Info("Router initialized")
}

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel() // Ensure the context is always canceled

	// Initialize dependencies
	appLogger, _ = logger.New("APP", config.ColorGreen, os.Stdout)

	initMongo(ctx)
	defer func() {
		_ = mongoClient.Disconnect(ctx)
	}()

	initRedis(ctx)
	defer func() {
		_ = redisClient.Close()
	}()

	initMQTT()
	defer mqttClient.Disconnect(250)

	initRepos(mongoClient)
	initLiveCache()
	initSensorGateway()
	initVoicePublisher()
	initSessionManager()
	defer sessionManager.StopAll()

	initPlanner()
	initJWTTokenizer()
	initAuthService()
	initAuthController()
	initNavController()
	initRouter(jwtTokenizer)

	// Run HTTP server
	if err := router.Run(); err != nil {
		appLogger.Error(fmt.Sprintf("Starting server: %v", err))
		os.Exit(1)
	}
}
