/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package storage persists slides and their elements and answers the
// sibling-rectangle queries the editor needs at drag start.
//
// Two drivers are supported through database/sql: the embedded, CGO-free
// modernc.org/sqlite (default) and Postgres via github.com/jackc/pgx/v5/stdlib.
// Geometry lives in plain columns so sibling lookups never decode element
// payloads; everything else round-trips as JSON.
package storage
