// Package logx configures arborsched's structured logging.
//
// This repo uses a small wrapper (logx.Logger) on top of zerolog to keep:
//   - Console output readable (short timestamp + short caller)
//   - File output JSON-structured
//   - Optional alerts sink (warn+ records mirrored to a JSONL file,
//     rate limited so bursts never block scheduling paths)
package logx
