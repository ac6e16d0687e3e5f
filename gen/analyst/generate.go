// Package analyst holds the gRPC stubs for the remote model service.
package analyst

//go:generate protoc -I ../../proto --go-grpc_out=. --go-grpc_opt=paths=source_relative analyst/v1/model.proto
