// Copyright 2026 The Schoolplane Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/schoolplane/schoolplane/internal/platform"
)

// DecisionCounter records every route/resource/entry access decision to an
// otel counter, labeled by layer, outcome and reason. This is the
// operator-facing signal for policy denials and scope-resolution faults;
// reason codes never reach the requesting principal.
type DecisionCounter struct {
	counter metric.Int64Counter
}

// NewDecisionCounter creates the platform.access.decisions counter.
func NewDecisionCounter(m *Meter) (*DecisionCounter, error) {
	counter, err := m.CreateCounter(
		"platform.access.decisions",
		"Access decisions produced by the platform-admin authorization core",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create decision counter: %w", err)
	}
	return &DecisionCounter{counter: counter}, nil
}

// Record implements platform.DecisionRecorder.
func (c *DecisionCounter) Record(ctx context.Context, layer string, d platform.Decision) {
	outcome := "deny"
	if d.Allowed {
		outcome = "allow"
	}
	c.counter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("layer", layer),
			attribute.String("outcome", outcome),
			attribute.String("reason", string(d.Reason)),
		),
	)
}
