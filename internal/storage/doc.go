/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package storage implements scene persistence.
// It handles open/save of scene files (a JSON array of shapes) with transactional writes and timestamped backups,
// validates scene JSON against the embedded schema, keeps an autosave history in an embedded SQLite database
// at <root>/.vecdraw/history.sqlite with full-text search over text shapes, and can push or pull whole scenes
// to a shared Postgres database.
package storage
