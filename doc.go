// Package loupe is an interactive image viewport for [Ebitengine].
//
// A [Viewer] loads one image, fits it to a surface so it covers the whole
// canvas, and lets the user pan, pinch-zoom and double-tap-zoom it. An
// optional pre-rotation by a multiple of 90 degrees is applied when the image
// is rasterized. Pans past the edge either stretch elastically and settle back
// with an eased animation, or are clamped as the finger moves.
//
// # Quick start
//
// The simplest way to get started is [Run], which creates a window and game
// loop for you:
//
//	err := loupe.Run(loupe.RunConfig{Title: "photo", Width: 375, Height: 667},
//		"https://example.com/photo.jpg", loupe.DefaultOptions())
//
// For full control, create the viewer yourself and call [Viewer.Update] and
// [Viewer.Draw] from your [ebiten.Game]:
//
//	v, err := loupe.New(loupe.Surface{Width: 375, Height: 667, DPR: 2}, src, opts)
//	if err != nil { ... }
//	v.Show()
//
//	func (g *Game) Update() error        { return g.v.Update() }
//	func (g *Game) Draw(s *ebiten.Image) { g.v.Draw(s) }
//
// # Coordinates
//
// Three spaces are involved. Gesture events use logical pixels. The canvas
// uses device pixels (logical times the pixel ratio). The draw buffer is a
// square that holds the fitted image at any rotation; its top-left sits at
// [State.Offset] in local space, and local space maps to the canvas through
// real = local*Scale + Origin. [State] derives everything else on demand.
//
// # Collaborators
//
// Image fetching ([Fetcher]), gesture recognition ([GestureSource]), painting
// ([Renderer]) and time ([Clock]) are injected through [Options]. Defaults are
// [SourceFetcher], [Recognizer], [EbitenRenderer] and the wall clock.
// [ImageRenderer] paints on the CPU and needs no GPU.
//
// Options can be loaded from YAML with [LoadOptions]; documents are checked
// against an embedded JSON schema. Logging goes through log/slog, see
// [NewLogger]. Viewer events can be forwarded to a [Donburi] world with the
// loupe/ecs module.
//
// [Ebitengine]: https://ebitengine.org
// [Donburi]: https://github.com/yohamta/donburi
package loupe
