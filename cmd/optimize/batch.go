package main

import (
	"fmt"
	"os"
	"time"

	"delivery-route-optimizer/internal/domain"

	"gopkg.in/yaml.v3"
)

type stopFile struct {
	Name string  `yaml:"name"`
	Lat  float64 `yaml:"lat"`
	Lon  float64 `yaml:"lon"`
}

type orderFile struct {
	OrderID      string   `yaml:"order_id"`
	Pickup       stopFile `yaml:"pickup"`
	Dropoff      stopFile `yaml:"dropoff"`
	ReadyMinutes float64  `yaml:"ready_minutes"`
}

// batchFile is the on-disk batch format. JSON input parses as YAML.
type batchFile struct {
	AgentID string      `yaml:"agent_id"`
	Start   stopFile    `yaml:"start"`
	Mode    string      `yaml:"mode"`
	Orders  []orderFile `yaml:"orders"`
}

type batch struct {
	AgentID string
	Start   domain.Stop
	Mode    string
	Orders  []domain.Order
}

func (s stopFile) stop() domain.Stop { return domain.NewStop(s.Name, s.Lat, s.Lon) }

func loadBatch(path string) (batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return batch{}, fmt.Errorf("load batch: read %q: %w", path, err)
	}
	return parseBatch(data)
}

func parseBatch(data []byte) (batch, error) {
	var f batchFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return batch{}, fmt.Errorf("load batch: parse: %w", err)
	}

	b := batch{AgentID: f.AgentID, Start: f.Start.stop(), Mode: f.Mode}
	for i, o := range f.Orders {
		id := o.OrderID
		if id == "" {
			id = fmt.Sprintf("order-%d", i+1)
		}
		b.Orders = append(b.Orders, domain.Order{
			ID:            id,
			Pickup:        o.Pickup.stop(),
			Dropoff:       o.Dropoff.stop(),
			ReadyDuration: time.Duration(o.ReadyMinutes * float64(time.Minute)),
		})
	}
	return b, nil
}

// demoBatch is a rider in Koramangala, Bengaluru with four food orders.
func demoBatch() batch {
	order := func(n int, pLat, pLon, dLat, dLon, ready float64) domain.Order {
		return domain.Order{
			ID:            fmt.Sprintf("order-%d", n),
			Pickup:        domain.NewStop(fmt.Sprintf("Restaurant %d", n), pLat, pLon),
			Dropoff:       domain.NewStop(fmt.Sprintf("Consumer %d", n), dLat, dLon),
			ReadyDuration: time.Duration(ready * float64(time.Minute)),
		}
	}

	return batch{
		AgentID: "aman",
		Start:   domain.NewStop("Aman (Koramangala)", 12.9330, 77.6200),
		Orders: []domain.Order{
			order(1, 12.9344, 77.6200, 12.9380, 77.6270, 15),
			order(2, 12.9360, 77.6280, 12.9400, 77.6300, 25),
			order(3, 12.9320, 77.6190, 12.9370, 77.6260, 12),
			order(4, 12.9350, 77.6220, 12.9390, 77.6290, 20),
		},
	}
}
