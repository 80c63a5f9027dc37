package main

import (
	"log"
	"net"
	"os"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/loomworks/loom/internal/activities"
	"github.com/loomworks/loom/internal/orchestration"
	"github.com/loomworks/loom/pkg/oppb"
)

func main() {
	addr := getEnv("LOOM_GATEWAY_ADDR", ":9095")

	acts, err := activities.NewActivities()
	if err != nil {
		log.Fatalf("Failed to wire activities: %v", err)
	}
	defer acts.Close()

	manager := orchestration.NewManager()
	acts.RegisterOperations(manager)

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatalf("listen: %v", err)
	}
	grpcServer := grpc.NewServer()
	oppb.RegisterOperationServiceServer(grpcServer, orchestration.NewService(manager))
	healthSrv := health.NewServer()
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthSrv)

	log.Printf("loom gateway gRPC listening on %s", addr)
	if err := grpcServer.Serve(lis); err != nil {
		log.Fatalf("serve: %v", err)
	}
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
