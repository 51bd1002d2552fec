package router

import (
	"time"

	"gestorpos/internal/config"
	"gestorpos/internal/handler"
	"gestorpos/internal/middleware"
	"gestorpos/internal/model"
	"gestorpos/internal/repository"
	"gestorpos/internal/service"
	"gestorpos/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, dispatcher *worker.Dispatcher) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.AllowedOrigins()))
	r.Use(middleware.ErrorHandler())

	// ── Repositories ─────────────────────────────────────────────────────────
	usuarioRepo := repository.NewUsuarioRepository(db)
	sesiones := repository.NewSesionStore(rdb)
	categoriaRepo := repository.NewCategoriaRepository(db)
	productoRepo := repository.NewProductoRepository(db)
	stockRepo := repository.NewStockRepository(db)
	clienteRepo := repository.NewClienteRepository(db)
	cuentaRepo := repository.NewCuentaRepository(db)
	cargoRepo := repository.NewCargoCuentaRepository(db)
	ventaRepo := repository.NewVentaRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(usuarioRepo, sesiones, cfg)
	categoriaSvc := service.NewCategoriaService(categoriaRepo)
	inventarioSvc := service.NewInventarioService(productoRepo, stockRepo)
	productoSvc := service.NewProductoService(productoRepo, stockRepo, categoriaRepo, inventarioSvc)
	clienteSvc := service.NewClienteService(clienteRepo)
	cuentaSvc := service.NewCuentaService(cuentaRepo, clienteRepo, cargoRepo, ventaRepo)
	ventaSvc := service.NewVentaService(ventaRepo, productoRepo, stockRepo, clienteRepo, cargoRepo,
		inventarioSvc, cuentaSvc, dispatcher, cfg)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usuariosH := handler.NewUsuariosHandler(authSvc)
	categoriasH := handler.NewCategoriasHandler(categoriaSvc)
	productosH := handler.NewProductosHandler(productoSvc)
	inventarioH := handler.NewInventarioHandler(inventarioSvc)
	clientesH := handler.NewClientesHandler(clienteSvc, cuentaSvc)
	cuentasH := handler.NewCuentasHandler(cuentaSvc, rdb)
	ventasH := handler.NewVentasHandler(ventaSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(rdb, 10, time.Minute), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes
	todos := middleware.RequireRole(model.RolCajero, model.RolSupervisor, model.RolAdministrador)
	supervision := middleware.RequireRole(model.RolSupervisor, model.RolAdministrador)
	admin := middleware.RequireRole(model.RolAdministrador)

	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret, sesiones))
	{
		v1.POST("/auth/logout", authH.Logout)

		usuarios := v1.Group("/usuarios", admin)
		{
			usuarios.POST("", usuariosH.Crear)
			usuarios.GET("", usuariosH.Listar)
			usuarios.DELETE("/:id", usuariosH.Desactivar)
		}

		// Categorías: administrador writes, everyone reads
		v1.GET("/categorias", todos, categoriasH.Listar)
		categorias := v1.Group("/categorias", admin)
		{
			categorias.POST("", categoriasH.Crear)
			categorias.PUT("/:id", categoriasH.Actualizar)
			categorias.DELETE("/:id", categoriasH.Desactivar)
		}

		v1.GET("/productos", todos, productosH.Listar)
		v1.GET("/productos/:id", todos, productosH.ObtenerPorID)
		prods := v1.Group("/productos", admin)
		{
			prods.POST("", productosH.Crear)
			prods.PUT("/:id", productosH.Actualizar)
			prods.DELETE("/:id", productosH.Eliminar)
			prods.DELETE("/:id/definitivo", productosH.EliminarDefinitivo)
		}

		inv := v1.Group("/inventario", supervision)
		{
			inv.POST("/entrada", inventarioH.Entrada)
			inv.POST("/salida", inventarioH.Salida)
			inv.POST("/ajuste", inventarioH.Ajuste)
			inv.GET("/movimientos", inventarioH.ListarMovimientos)
			inv.GET("/alertas", inventarioH.ObtenerAlertas)
			inv.GET("/productos/:id", inventarioH.StockProducto)
		}

		clientes := v1.Group("/clientes", todos)
		{
			clientes.POST("", clientesH.Crear)
			clientes.GET("", clientesH.Listar)
			clientes.GET("/:id", clientesH.ObtenerPorID)
			clientes.PUT("/:id", clientesH.Actualizar)
			clientes.DELETE("/:id", admin, clientesH.Eliminar)
			clientes.GET("/:id/cuenta", clientesH.Cuenta)
			clientes.GET("/:id/cuenta/movimientos", clientesH.Movimientos)
			clientes.POST("/:id/cuenta/saldar", supervision, clientesH.Saldar)
		}

		cargos := v1.Group("/cuentas/cargos", supervision)
		{
			cargos.GET("", cuentasH.ListarCargos)
			cargos.GET("/dlq", cuentasH.DLQ)
			cargos.POST("/:id/reintentar", cuentasH.ReintentarCargo)
		}

		ventas := v1.Group("/ventas", todos)
		{
			ventas.POST("", ventasH.CrearVenta)
			ventas.GET("", ventasH.ListarVentas)
			ventas.GET("/:id", ventasH.ObtenerVenta)
			ventas.GET("/:id/comprobante", ventasH.Comprobante)
			ventas.POST("/:id/anular", supervision, ventasH.AnularVenta)
		}

		v1.GET("/reportes/ventas", supervision, ventasH.ResumenVentas)
	}

	// Swagger UI outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
