package snapshots

func fn(name string, call Handler, params ...string) Func {
	f := Func{Name: name, Call: call, ParamNames: params, Params: make([]ValueType, len(params))}
	for i := range f.Params {
		f.Params[i] = I32
	}
	return f
}

// i64 marks the parameters at idx as 64-bit.
func (f Func) i64(idx ...int) Func {
	for _, i := range idx {
		f.Params[i] = I64
	}
	return f
}

// Funcs returns the functions both snapshots define, bound to a.
func (a *ABI) Funcs() []Func {
	return []Func{
		fn("args_get", a.argsGet, "argv", "argv_buf"),
		fn("args_sizes_get", a.argsSizesGet, "result.argc", "result.argv_len"),
		fn("environ_get", a.environGet, "environ", "environ_buf"),
		fn("environ_sizes_get", a.environSizesGet, "result.environc", "result.environv_len"),
		fn("clock_res_get", a.clockResGet, "id", "result.resolution"),
		fn("clock_time_get", a.clockTimeGet, "id", "precision", "result.timestamp").i64(1),
		fn("fd_advise", a.fdAdvise, "fd", "offset", "len", "advice").i64(1, 2),
		fn("fd_allocate", a.fdAllocate, "fd", "offset", "len").i64(1, 2),
		fn("fd_close", a.fdClose, "fd"),
		fn("fd_datasync", a.fdDatasync, "fd"),
		fn("fd_fdstat_get", a.fdFdstatGet, "fd", "result.stat"),
		fn("fd_fdstat_set_flags", a.fdFdstatSetFlags, "fd", "flags"),
		fn("fd_fdstat_set_rights", a.fdFdstatSetRights, "fd", "fs_rights_base", "fs_rights_inheriting").i64(1, 2),
		fn("fd_filestat_get", a.fdFilestatGet, "fd", "result.buf"),
		fn("fd_filestat_set_size", a.fdFilestatSetSize, "fd", "size").i64(1),
		fn("fd_filestat_set_times", a.fdFilestatSetTimes, "fd", "atim", "mtim", "fst_flags").i64(1, 2),
		fn("fd_pread", a.fdPread, "fd", "iovs", "iovs_len", "offset", "result.nread").i64(3),
		fn("fd_prestat_get", a.fdPrestatGet, "fd", "result.prestat"),
		fn("fd_prestat_dir_name", a.fdPrestatDirName, "fd", "path", "path_len"),
		fn("fd_pwrite", a.fdPwrite, "fd", "iovs", "iovs_len", "offset", "result.nwritten").i64(3),
		fn("fd_read", a.fdRead, "fd", "iovs", "iovs_len", "result.nread"),
		fn("fd_readdir", a.fdReaddir, "fd", "buf", "buf_len", "cookie", "result.bufused").i64(3),
		fn("fd_renumber", a.fdRenumber, "fd", "to"),
		fn("fd_seek", a.fdSeek, "fd", "offset", "whence", "result.newoffset").i64(1),
		fn("fd_sync", a.fdSync, "fd"),
		fn("fd_tell", a.fdTell, "fd", "result.offset"),
		fn("fd_write", a.fdWrite, "fd", "iovs", "iovs_len", "result.nwritten"),
		fn("path_create_directory", a.pathCreateDirectory, "fd", "path", "path_len"),
		fn("path_filestat_get", a.pathFilestatGet, "fd", "flags", "path", "path_len", "result.buf"),
		fn("path_filestat_set_times", a.pathFilestatSetTimes,
			"fd", "flags", "path", "path_len", "atim", "mtim", "fst_flags").i64(4, 5),
		fn("path_link", a.pathLink,
			"old_fd", "old_flags", "old_path", "old_path_len", "new_fd", "new_path", "new_path_len"),
		fn("path_open", a.pathOpen,
			"fd", "dirflags", "path", "path_len", "oflags",
			"fs_rights_base", "fs_rights_inheriting", "fdflags", "result.opened_fd").i64(5, 6),
		fn("path_readlink", a.pathReadlink, "fd", "path", "path_len", "buf", "buf_len", "result.bufused"),
		fn("path_remove_directory", a.pathRemoveDirectory, "fd", "path", "path_len"),
		fn("path_rename", a.pathRename, "fd", "old_path", "old_path_len", "new_fd", "new_path", "new_path_len"),
		fn("path_symlink", a.pathSymlink, "old_path", "old_path_len", "fd", "new_path", "new_path_len"),
		fn("path_unlink_file", a.pathUnlinkFile, "fd", "path", "path_len"),
		fn("poll_oneoff", a.pollOneoff, "in", "out", "nsubscriptions", "result.nevents"),
		{Name: "proc_exit", Call: a.procExit, Params: []ValueType{I32}, ParamNames: []string{"rval"}, NoResult: true},
		fn("proc_raise", a.procRaise, "sig"),
		fn("random_get", a.randomGet, "buf", "buf_len"),
		fn("sched_yield", a.schedYield),
		fn("sock_recv", a.sockRecv, "fd", "ri_data", "ri_data_len", "ri_flags", "result.ro_datalen", "result.ro_flags"),
		fn("sock_send", a.sockSend, "fd", "si_data", "si_data_len", "si_flags", "result.so_datalen"),
		fn("sock_shutdown", a.sockShutdown, "fd", "how"),
	}
}

// SockAccept returns sock_accept bound to a. Only preview1 defines it.
func (a *ABI) SockAccept() Func {
	return fn("sock_accept", a.sockAccept, "fd", "flags", "result.fd")
}
