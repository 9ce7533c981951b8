/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"os"
	"testing"

	"goslides/internal/geometry"
)

// Runs only against a real Postgres: GSL_PG_DSN=postgres://... go test ./internal/storage
func TestPostgresRoundTrip(t *testing.T) {
	dsn := os.Getenv("GSL_PG_DSN")
	if dsn == "" {
		t.Skip("GSL_PG_DSN not set")
	}
	ctx := context.Background()
	s, err := Open(ctx, Config{Driver: DriverPgx, DSN: dsn})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()
	sl := sampleSlide()
	sl.ID = "pg-" + t.Name()
	t.Cleanup(func() { _ = s.DeleteSlide(context.Background(), sl.ID) })
	if err := s.PutSlide(ctx, sl); err != nil {
		t.Fatalf("PutSlide: %v", err)
	}
	if err := s.UpdateGeometry(ctx, sl.ID, "title", geometry.R(1, 2, 300, 60)); err != nil {
		t.Fatalf("UpdateGeometry: %v", err)
	}
	sibs, err := s.Siblings(ctx, sl.ID, "photo")
	if err != nil || len(sibs) != 2 || sibs[0].Rect.Left != 1 {
		t.Fatalf("Siblings = %+v, %v", sibs, err)
	}
}
