package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	saveoperation "laser-offers/http-server/admin/operations/save"
	updateoperation "laser-offers/http-server/admin/operations/update"
	generate_excel "laser-offers/http-server/generate-report/generate-excel"
	offer_calc "laser-offers/http-server/offer-calc"
	getoffer "laser-offers/http-server/offer/get"
	saveoffer "laser-offers/http-server/offer/save"
	updateoffer "laser-offers/http-server/offer/update"
	getoperations "laser-offers/http-server/operations/get"
	"laser-offers/internal/config"
	"laser-offers/internal/metrics"
	"laser-offers/internal/middleware/auth"
	"laser-offers/internal/service"
	"laser-offers/internal/service/catalog"
	excelservice "laser-offers/internal/service/generate-excel"
	"laser-offers/internal/storage/mysql"
)

func routes(
	cfg config.Config,
	log *slog.Logger,
	storage *mysql.Storage,
	operations *catalog.Cache,
	offers *service.OfferService,
	excel *excelservice.GenerateExcelService,
) (*chi.Mux, error) {
	router := chi.NewRouter()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	router.Use(corsHandler.Handler)
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	router.Post("/api/offers/calculate", offer_calc.CalculateOffer(log, offers))

	router.Get("/api/operation-categories", getoperations.GetCategories(log, storage))
	router.Get("/api/operations", getoperations.GetOperations(log, operations))

	router.Get("/api/offers", getoffer.ListOffers(log, offers))
	router.Post("/api/offers", saveoffer.SaveOffer(log, offers))
	router.Get("/api/offers/{id}", getoffer.GetOffer(log, offers))
	router.Put("/api/offers/{id}", updateoffer.UpdateOffer(log, offers))
	router.Get("/api/offers/{id}/excel", generate_excel.GenerateOfferExcel(log, excel))

	adminRouter := chi.NewRouter()
	adminRouter.Use(auth.BasicAuth(cfg.AdminRealm, cfg.AdminLogin, cfg.AdminPass))

	adminRouter.Post("/operations", saveoperation.SaveOperationAdmin(log, storage, operations))
	adminRouter.Put("/operations/{id}", updateoperation.UpdateOperationAdmin(log, storage, operations))

	router.Mount("/api/admin", adminRouter)

	if cfg.MetricsEnabled {
		router.Handle("/metrics", metrics.Handler())
	}

	if cfg.FrontendDir != "" {
		if err := mountFrontend(router, cfg.FrontendDir); err != nil {
			return nil, err
		}
	}

	return router, nil
}

// mountFrontend serves the built SPA, falling back to index.html for
// client-side routes.
func mountFrontend(router chi.Router, dir string) error {
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("frontend dir %s: %w", dir, err)
	}

	fileServer := http.FileServer(http.Dir(dir))

	router.Handle("/assets/*", fileServer)
	router.Handle("/js/*", fileServer)
	router.Handle("/css/*", fileServer)
	router.Handle("/img/*", fileServer)

	router.HandleFunc("/*", func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(dir, filepath.Clean("/"+r.URL.Path))
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			http.ServeFile(w, r, path)
			return
		}
		http.ServeFile(w, r, filepath.Join(dir, "index.html"))
	})

	return nil
}
