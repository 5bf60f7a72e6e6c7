package main

// General API documentation for swaggo.
//
// @title           plotbench API
// @version         1.0
// @description     HTTP API for supervising a local llama-server and chatting through it.
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
