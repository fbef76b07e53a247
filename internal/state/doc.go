// Package state shares the latest reconciliation preview and sync report
// between the background poller and the UI.
//
// # Overview
//
// The poller recomputes an orchestrator.Preview on a cadence and stores it
// with Update. Each finished sync pass stores its orchestrator.Report with
// RecordReport. The UI reads a Snapshot on every frame.
//
//	Producer (Poller):              Consumer (UI):
//	┌──────────────────┐           ┌──────────────────┐
//	│ orch.Preview()   │           │                  │
//	│      ↓           │           │                  │
//	│ store.Update()   │──────────→│ store.Snapshot() │
//	│ store.Record...  │  (mutex)  │      ↓           │
//	│  repeat...       │           │  render          │
//	└──────────────────┘           └──────────────────┘
//
// # Update Semantics
//
// A failed preview keeps the previous one and records the error:
//
//	store.Update(&preview, nil)
//	→ snapshot.Preview = preview
//	→ snapshot.LastError = nil
//
//	store.Update(nil, err)
//	→ snapshot.Preview = <unchanged>
//	→ snapshot.LastError = err
//	→ snapshot.ConsecutiveFailures++
//
// Failed, Pending and Users slices are copied on the way in and on the way
// out. The reconcile buckets inside a UserPlan are shared; they are never
// modified once a plan has been built.
//
// The zero Store is ready to use.
package state
