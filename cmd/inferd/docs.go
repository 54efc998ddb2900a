package main

// General API documentation for swaggo. Run `swag init -g cmd/inferd/docs.go`
// to regenerate docs before building with -tags=swagger.
//
// @title           inferd API
// @version         1.0
// @description     HTTP API for model status queries and inference.
//
// @BasePath  /
//
// @schemes http
