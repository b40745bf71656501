package server

import (
	"net/http"

	"github.com/gorilla/mux"
)

func SetupRoutes(uploadService *UploadService) *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/uploads", uploadService.HandleUpload).Methods(http.MethodPost)
	router.HandleFunc("/uploads/{id}", uploadService.HandleGetUpload).Methods(http.MethodGet)
	router.HandleFunc("/schemas", uploadService.HandleRegisterSchema).Methods(http.MethodPost)
	router.HandleFunc("/schemas", uploadService.HandleListSchemas).Methods(http.MethodGet)

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	return router
}
