package router

// User-facing replies. Commands and replies are Spanish; everything else in
// the service is English.
const (
	msgNotConnected = "❌ No estás conectado a ninguna sesión.\n\n" +
		"Para jugar:\n• Crea una sesión: _/sesion_ <nickname> [nombre_equipo]\n" +
		"• O únete a una existente: _/unirse_ *(/u)* <código> <nickname> [nombre_equipo]\n\n" +
		"Pide el código a quien organice si vas a unirte."

	msgHelp = `⚽ PATABOL - Comandos disponibles:

_/sesion_ <nickname> [nombre_equipo] - Crea una nueva sesión (te une y te da el código para compartir)
_/unirse_ *(/u)* <código> <nickname> [nombre_equipo] - Únete a una sesión existente. Creador: _/u_ *ia* [nombre_equipo] para jugar vs IA (nombre opcional)
_/pool_ *(/p)* [port|def|med|del] - Pool disponible. Filtros: port (porteros), def (defensas), med (medios), del (delanteros)
_/detalle_ *(/d)* <id> - Muestra detalle de un patabolista
_/seleccionar_ *(/s)* <id1> [id2] ... - Selecciona tu equipo (entre 1 y 5 jugadores)
_/seleccionar_auto_ *(/a)* - Elige tu equipo automáticamente (5 jugadores, con portero)
_/quitar_ *(/q)* <id> - Devuelve un jugador de tu equipo al pool para elegir otro
_/equipo_ *(/e)* - Muestra tu equipo actualmente seleccionado
_/confirmar_ *(/c)* - Confirma tu equipo (el partido inicia automáticamente cuando ambos confirman)
_/estadisticas_ *(/est)* - Muestra estadísticas del último partido
_/salir_ - Salir de la sesión actual
_/ayuda_ *(/h)* - Muestra esta ayuda
`

	msgEmptyCommand   = "Comando no reconocido. Usa /ayuda o /h para ver comandos disponibles."
	msgUnknownCommand = "❌ Comando no reconocido. Usa /ayuda o /h para ver comandos disponibles."
	msgInternal       = "❌ Ocurrió un error inesperado. Intentá de nuevo en unos segundos."

	msgCreateUsage = "❌ Uso: /sesion <nickname> [nombre_equipo]\nEjemplo: /sesion Leo Los Rayos"
	msgCreated     = "✅ Sesión creada. Te uniste como '%s' (equipo: %s).\n\n" +
		"📌 Código para compartir con otros jugadores: *%s*\n\n" +
		"• Para jugar contra la IA: _/u ia_ o _/u ia_ <nombre_equipo>\n" +
		"• Para que otro jugador se una: /u <código> <nickname>\n\n" +
		"Usa /p para ver patabolistas y /s para elegir tu equipo."
	msgAlreadyInSession = "Actualmente estás en una sesión, debes salir con el comando /salir."
	msgStart            = "Usa /sesion <nickname> [nombre_equipo] para crear una nueva sesión, o /u <código> <nickname> para unirte a una existente."

	msgJoinUsage       = "❌ Uso: /unirse <código> <nickname> [nombre_equipo]\nEjemplo: /unirse ABC123 Ana"
	msgJoined          = "Te uniste a la sesión como '%s' (equipo: %s)."
	msgJoinNotified    = "👤 %s se unió a tu sesión (equipo: %s)."
	msgSessionNotFound = "No existe una sesión con el código %s."
	msgSessionFull     = "La sesión ya tiene el máximo de jugadores."
	msgAlreadyJoined   = "Ya estás en esta sesión."
	msgReservedID      = "❌ Ese identificador está reservado. Usá otro canal o usuario."
	msgJoinWhileIn     = "❌ Ya estás en una sesión. Usa /salir primero."

	msgBotJoined       = "✅ IA unida a la sesión (equipo: %s). Elige tu equipo con /s o /a; la IA elegirá el suyo automáticamente."
	msgBotNotCreator   = "Solo el creador de la sesión puede agregar a la IA."
	msgBotAlreadyThere = "La IA ya está en esta sesión."

	msgLeft = "✅ Has salido de la sesión."

	msgPoolTitle      = "📋 POOL DE PATABOLISTAS"
	msgPoolEmpty      = "No hay patabolistas disponibles en el pool (ya fueron elegidos)."
	msgPoolMore       = "📌 Hay %d jugadores más.\nFiltros: /p port (porteros), /p def (defensas), /p med (medios), /p del (delanteros)"
	msgPoolFilterNone = "❌ No hay patabolistas disponibles con ese filtro. Usa /p para ver todos."

	msgDetailUsage    = "❌ Uso: /detalle <id> o /d <id>\nEjemplo: /d P1"
	msgPlayerNotFound = "❌ Patabolista %s no encontrado. Usa /pool para ver IDs."

	msgNothingToPick    = "❌ No hay patabolistas disponibles para elegir (ya fueron seleccionados)."
	msgSelectEmpty      = "❌ Debes elegir al menos un patabolista.\nEjemplo: /s P1 P5 P8"
	msgSelectTooMany    = "❌ Máximo %d jugadores por equipo.\nEjemplo: /s P1 P5 P8"
	msgSelectUnavail    = "❌ %s no está disponible (no existe o ya fue elegido por el otro). Usa /pool."
	msgSelectDuplicate  = "❌ %s está repetido en tu selección.\nEjemplo: /s P1 P5 P8"
	msgSelected         = "✅ Equipo (%s) seleccionado:\n"
	msgAutoSelected     = "✅ Equipo (%s) seleccionado automáticamente:\n"
	msgSelectBothReady  = "\nUsá _/confirmar_ o _/c_ para confirmar tu equipo. Solo equipos confirmados pueden jugar."
	msgSelectVersusBot  = "\nUsá _/confirmar_ o _/c_ para confirmar tu equipo. La IA elegirá el suyo cuando confirmes."
	msgSelectWaiting    = "\nEsperando al otro jugador para que elija su equipo."
	msgMatchLocked      = "❌ El partido ya está en marcha. Esperá a que termine."
	msgRemoveUsage      = "❌ Uso: /quitar <id> o /q <id>\nEjemplo: /q P3\nDevuelve ese jugador al pool para elegir otro."
	msgRemoveEmpty      = "❌ No tienes jugadores seleccionados. Usa /seleccionar o /seleccionar_auto."
	msgRemoveNotInTeam  = "❌ %s no está en tu equipo. Tus jugadores: %s"
	msgRemoved          = "✅ %s devuelto al pool. Usa /pool para ver disponibles y /seleccionar para elegir otro."
	msgRosterEmpty      = "❌ No tienes jugadores seleccionados aún. Usa /s o /a para elegir tu equipo."
	msgConfirmEmpty     = "❌ No tienes jugadores seleccionados. Usa /s o /a para elegir tu equipo."
	msgAlreadyConfirmed = "✅ Tu equipo ya está confirmado."
	msgBothConfirmed    = "🎮 Ambos equipos confirmados. ¡Iniciando partido!"
	msgNoResult         = "❌ No hay partido jugado aún en esta sesión."
)

// Match feed texts, used by the delivery loop.
const (
	MsgMatchStart = "🎮 ¡Iniciando partido!"
	MsgMatchEnd   = "Sesión finalizada. Creá una nueva con /sesion para jugar otra vez."
	MsgQueueFull  = "❌ Hay demasiados partidos en curso. Confirmá de nuevo en unos segundos con /c."
)
