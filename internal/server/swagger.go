package server

//go:generate swag init -g internal/server/server.go -o docs/swagger

// @title Insight API
// @version 0.1
// @description Interactive documentation for the Insight accessibility and performance scanning API.
// @contact.name Insight Maintainers
// @contact.url https://github.com/accessify/insight
// @BasePath /
