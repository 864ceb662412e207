// Package tileui is a touch-routing and lock-arbitration engine for widget
// interfaces drawn on a shared tile grid and used by many people at once.
//
// # Interfaces
//
// An interface is a tree of rectangular [Node] values under a [Root]. Nodes
// are positioned relative to their parent; children are kept back-to-front
// and hit-tested front-to-back.
//
//	root, _ := tileui.NewRoot("panel", 10, 10, 20, 12, tileui.RootConfig{
//		Node: tileui.RootNodeConfig(),
//	})
//	button := tileui.NewLeaf("ok", 2, 2, 6, 3, tileui.DefaultNodeConfig(),
//		func(n *tileui.Node, t *tileui.Touch) { log.Println("pressed by", t.User()) })
//	root.AddChild(button)
//
//	ui := tileui.NewUI(tileui.NewWorld(400, 300))
//	if err := ui.Create(root); err != nil { ... }
//
// # Touches
//
// Transports feed positional input through [UI.Touched]. Each user has a
// [TouchSession]; the touches between a begin and its end form one
// press-session. A node reacts only to the states its [NodeConfig] listens
// to and, with BeginRequire, only to moving and end touches of a
// press-session that began on it. A node with SessionAcquire receives the
// rest of its press-session directly.
//
// # Locks
//
// A [LockConfig] on a node places a lock on the node or on its whole root
// when the node consumes a touch. Global locks block every other user and
// every other press-session until the delay elapses; personal locks only
// block the user that placed them. A blocked touch disables its session, so
// nothing below or beside the locked node sees it.
//
// # Redraw
//
// Every root keeps a revision counter and the last revision each observer
// received. [UI.Update] runs the sync pass: dirty roots are updated and
// applied into their [Provider], then every stale observer gets a [Frame]
// through the configured [Drawer]. Roots on the [MainProvider] draw straight
// into the [World]; roots on an [OverlayProvider] keep their own buffer and
// can be personal to a set of observers.
//
// # Applications
//
// An [ApplicationType] names a re-creatable interface. Instances get the
// smallest free index and public ones are persisted through a [Saver].
//
// # Hooks
//
// A [HookSink] set with [UI.SetHookSink] observes root creation, geometry
// and enabled changes, apply, provider removal and consumed touches. The ecs
// subpackage forwards hooks into a Donburi world.
package tileui
