//go:build !ios && !android && (amd64 || arm64)

package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Root command
		"Extract still images from audio and video files":             "音声・動画ファイルから静止画を抽出",
		"YAML configuration file":                                     "YAML設定ファイル",
		"Log level (debug, info, warn, error)":                        "ログレベル（debug, info, warn, error）",
		"Log format (text, json); json when stderr is not a terminal": "ログ形式（text, json）。端末以外ではjson",
		"Hardware decoding: auto, none or a device type":              "ハードウェアデコード: auto, none またはデバイス種別",
		"Write Prometheus metrics to this file on exit":               "終了時にPrometheusメトリクスをこのファイルへ書き出す",

		// Commands
		"Print a summary of media files":             "メディアファイルの概要を表示",
		"Save the picture shown at a given time":     "指定時刻の画像を保存",
		"Save the cover art":                         "カバーアートを保存",
		"Save a thumbnail":                           "サムネイルを保存",
		"Save a contact sheet":                       "コンタクトシートを保存",
		"Write thumbnails of many files in parallel": "複数ファイルのサムネイルを並列に書き出す",
		"Serve previews over HTTP":                   "HTTPでプレビューを提供",

		// Flags
		"Output file, - for standard output":         "出力ファイル（- で標準出力）",
		"Fit inside WxH; 0 keeps that axis free":     "WxH に収める（0 はその軸を制限しない）",
		"Time in seconds":                            "時刻（秒）",
		"Grayscale output":                           "グレースケールで出力",
		"Cover mode (default, thumbnail, landscape)": "カバーモード（default, thumbnail, landscape）",
		"Number of columns":                          "列数",
		"Stamp snapshot times":                       "撮影時刻を表示",
		"Print JSON":                                 "JSONで出力",
		"Output directory":                           "出力ディレクトリ",
		"Files processed at once":                    "同時に処理するファイル数",
		"Directory served":                           "公開するディレクトリ",
		"Listen address":                             "待ち受けアドレス",

		// Messages
		"%s has no picture":     "%s には画像がありません",
		"%d of %d files failed": "%d / %d 件のファイルで失敗しました",
		"no input file":         "入力ファイルがありません",
		"invalid size %q":       "サイズ %q が不正です",
	})
}
