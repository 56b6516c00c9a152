package main

// General API documentation for swaggo. Regenerate with `swag init -g cmd/torchserved/docs.go -o docs`.
//
// @title           torchserved admin API
// @version         1.0
// @description     Admin HTTP surface of the torchserved model serving control plane.
// @description     Model lifecycle and prediction are served over gRPC (torchserve.v1.TorchServe).
//
// @contact.name   torchserved maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
