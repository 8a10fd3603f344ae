/*
 * Copyright 2024 The FlowGo Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package world

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/flowgo/flowgo/api/types"
	"github.com/flowgo/flowgo/sequence"
	"github.com/flowgo/flowgo/utils/cache"
	"github.com/flowgo/flowgo/utils/maps"
)

// register the node
func init() {
	Registry.Add(&PlaySequenceNode{})
}

// Output pins of the sequence node. The authored event names of the
// referenced asset extend this set at runtime.
const (
	RelationPreStart  = "PreStart"
	RelationStarted   = "Started"
	RelationCompleted = "Completed"
)

// MsgTypeTimeDilationUpdate updates the play rate of a running playback
// without re-activating the node. The new rate comes from the metadata
// timeDilation key, falling back to the world's current time dilation.
const MsgTypeTimeDilationUpdate = "TIME_DILATION_UPDATE"

// noSequenceDescription is shown when no asset is referenced.
const noSequenceDescription = "[No sequence]"

// PlaySequenceNodeConfiguration is the node configuration.
type PlaySequenceNodeConfiguration struct {
	// Sequence is the catalog path of the sequence asset to play.
	Sequence string
	// PlayRate scales playback speed. 0 means 1.0.
	PlayRate float64
	// StartOffsetMs starts playback that far into the timeline,
	// in milliseconds.
	StartOffsetMs int
}

// onSequenceEventExecuted is the shared event callback every section of a
// playing asset binds to. It is class level, not per instance; the owning
// node travels in the receiver argument and is cast back here.
func onSequenceEventExecuted(receiver interface{}, eventName string) {
	if node, ok := receiver.(*PlaySequenceNode); ok {
		node.triggerOutput(eventName)
	}
}

// PlaySequenceNode plays a sequence asset inside the current world. It is
// latent: OnMsg returns after starting playback, and the node keeps firing
// outputs from playback callbacks until completion.
//
// On activation it resolves the asset, fires PreStart, starts a player and
// fires Started. Every authored event of the asset becomes a dynamically
// named output pin; natural completion fires Completed exactly once.
// A missing asset or missing world skips playback but still forwards the
// message over PreStart so the graph never stalls.
type PlaySequenceNode struct {
	// Config is the node configuration.
	Config PlaySequenceNodeConfiguration

	catalog  *sequence.Catalog
	streamer *sequence.Streamer
	ref      sequence.Ref

	mu        sync.Mutex
	loaded    *sequence.Sequence
	player    *sequence.Player
	activeCtx types.FlowContext
	activeMsg types.FlowMsg
}

// Type of the component.
func (x *PlaySequenceNode) Type() string {
	return "world/playSequence"
}

func (x *PlaySequenceNode) New() types.Node {
	return &PlaySequenceNode{Config: PlaySequenceNodeConfiguration{
		PlayRate: 1.0,
	}}
}

// Init resolves the asset reference and the catalog. The catalog can be
// injected through the $catalog configuration key, e.g. by tests.
func (x *PlaySequenceNode) Init(config types.Config, configuration types.Configuration) error {
	if err := maps.Map2Struct(configuration, &x.Config); err != nil {
		return err
	}
	if x.Config.PlayRate <= 0 {
		x.Config.PlayRate = 1.0
	}
	x.catalog = sequence.DefaultCatalog
	if v, ok := configuration[types.NodeConfigurationKeyCatalog]; ok {
		if catalog, ok := v.(*sequence.Catalog); ok {
			x.catalog = catalog
		}
	}
	assetCache := config.Cache
	if assetCache == nil {
		assetCache = cache.DefaultCache
	}
	x.streamer = sequence.NewStreamer(x.catalog, assetCache)
	x.ref = sequence.Ref{Path: x.Config.Sequence}
	return nil
}

// OnMsg activates playback, or applies a time dilation update to a running
// playback.
func (x *PlaySequenceNode) OnMsg(ctx types.FlowContext, msg types.FlowMsg) {
	if msg.Type == MsgTypeTimeDilationUpdate {
		x.applyTimeDilation(ctx, msg)
		return
	}

	seq := x.catalog.LoadSync(x.ref)
	world := ctx.Config().World
	if seq == nil || world == nil {
		// nothing to play, still advance the graph
		ctx.TellNext(msg, RelationPreStart)
		return
	}

	playRate := x.Config.PlayRate
	if dilation := world.TimeDilation(); dilation > 0 {
		playRate = playRate * dilation
	}
	player := sequence.NewPlayer(seq, x, sequence.PlaybackSettings{
		PlayRate:    playRate,
		StartOffset: time.Duration(x.Config.StartOffsetMs) * time.Millisecond,
	})

	x.mu.Lock()
	if x.player != nil {
		// a previous activation is still running, supersede it
		x.player.Stop()
	}
	x.loaded = seq
	x.player = player
	x.activeCtx = ctx
	x.activeMsg = msg.Copy()
	x.mu.Unlock()

	for _, section := range seq.EventSections() {
		section.BindStatic(onSequenceEventExecuted)
	}

	ctx.TellNext(msg, RelationPreStart)
	player.OnFinished(x.onPlaybackFinished)
	player.Play()
	ctx.TellNext(msg, RelationStarted)
}

// applyTimeDilation adjusts the play rate of the running player.
func (x *PlaySequenceNode) applyTimeDilation(ctx types.FlowContext, msg types.FlowMsg) {
	dilation := 0.0
	if v := msg.Metadata.GetValue("timeDilation"); v != "" {
		dilation, _ = strconv.ParseFloat(v, 64)
	} else if world := ctx.Config().World; world != nil {
		dilation = world.TimeDilation()
	}
	x.mu.Lock()
	player := x.player
	x.mu.Unlock()
	if player != nil && dilation > 0 {
		player.SetPlayRate(x.Config.PlayRate * dilation)
	}
	ctx.TellSuccess(msg)
}

// triggerOutput routes an authored event to the equally named output pin of
// the activation that is currently playing.
func (x *PlaySequenceNode) triggerOutput(eventName string) {
	x.mu.Lock()
	ctx := x.activeCtx
	msg := x.activeMsg
	x.mu.Unlock()
	if ctx == nil || eventName == "" {
		return
	}
	out := msg.Copy()
	out.Metadata.PutValue("eventName", eventName)
	ctx.TellNext(out, eventName)
}

// onPlaybackFinished fires the Completed pin. The player guarantees it
// runs at most once per playback.
func (x *PlaySequenceNode) onPlaybackFinished() {
	x.triggerOutput(RelationCompleted)
}

// Destroy unbinds every section callback, stops and releases the player
// and clears the loaded asset. Idempotent, safe when playback never
// started.
func (x *PlaySequenceNode) Destroy() {
	x.mu.Lock()
	loaded := x.loaded
	player := x.player
	x.loaded = nil
	x.player = nil
	x.activeCtx = nil
	x.mu.Unlock()

	if loaded != nil {
		for _, section := range loaded.EventSections() {
			section.Unbind()
		}
	}
	if player != nil {
		player.Stop()
	}
}

// PreloadContent hints the streamer to warm the asset cache.
func (x *PlaySequenceNode) PreloadContent() {
	if x.streamer != nil {
		x.streamer.RequestAsyncLoad(x.ref)
	}
}

// FlushContent drops the preloaded asset from the cache.
func (x *PlaySequenceNode) FlushContent() {
	if x.streamer != nil {
		x.streamer.Unload(x.ref)
	}
}

// NodeDescription is the description shown on the graph node.
func (x *PlaySequenceNode) NodeDescription() string {
	if x.ref.IsNull() {
		return noSequenceDescription
	}
	return x.ref.AssetName()
}

// StatusString reports playback progress while playing.
func (x *PlaySequenceNode) StatusString() string {
	x.mu.Lock()
	player := x.player
	x.mu.Unlock()
	if player == nil || !player.IsPlaying() {
		return ""
	}
	return fmt.Sprintf("%.2fs / %.2fs", player.CurrentTime().Seconds(), player.Duration().Seconds())
}

// ContextOutputs force-resolves the asset and returns the authored event
// names, keeping the editor pin set in sync with asset authoring.
func (x *PlaySequenceNode) ContextOutputs() []string {
	seq := x.catalog.LoadSync(x.ref)
	if seq == nil {
		return nil
	}
	return seq.EntryPoints()
}

// AssetToOpen returns the asset reference an editor should open for this
// node.
func (x *PlaySequenceNode) AssetToOpen() interface{} {
	return x.ref
}

// DebugSnapshot contributes the bound asset path and playback state to
// debug captures.
func (x *PlaySequenceNode) DebugSnapshot() map[string]string {
	x.mu.Lock()
	player := x.player
	x.mu.Unlock()
	snapshot := map[string]string{
		"sequence": x.ref.Path,
	}
	if player != nil {
		snapshot["playing"] = strconv.FormatBool(player.IsPlaying())
		snapshot["currentTime"] = player.CurrentTime().String()
	}
	return snapshot
}

// Category of the component.
func (x *PlaySequenceNode) Category() string {
	return "World"
}

// Desc of the component.
func (x *PlaySequenceNode) Desc() string {
	return "Play a sequence asset and forward its authored events as output pins"
}
