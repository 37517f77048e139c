// Package api implements the JSON HTTP API of the validator backend.
//
// Routes are registered on a gorilla/mux router by Handler.Register:
//
//	POST /signup                    create a user
//	POST /login                     check credentials (optional role check)
//	GET  /commands                  corpus rows with unescaped contexts
//	GET  /contexts/{command_id}     arguments of one command
//	POST /mark_dynamic              record a dynamic classification
//	POST /mark_static               record a static classification
//	GET  /last_cmd/{user_id}        dashboard resume index
//	POST /update_last_cmd           store the resume index
//	GET  /validators                validators ordered by id
//	GET  /validator_stats/{user_id} per-validator progress
//	GET  /user_counts               validators and viewers
//	GET  /recent_active             validators by last activity
//	GET  /history/{user_id}         filtered classification history (json or csv)
//
// Errors use the envelope from pkg/api/types. Store sentinel errors map to
// 400 and 404; everything else is logged and returned as a 500 without its
// cause.
package api
